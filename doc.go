// Package sdk is a Go client SDK for the vSphere SOAP API focused on
// telemetry: it authenticates a session, enumerates the managed-object
// inventory through a single fixed traversal query, discovers per-object
// performance counters, and retrieves time-series samples.
//
// # Getting started
//
// Add the SDK to your Go dependencies:
//
//	go get github.com/vtelemetry/vsphere_sdk
//
// # Collecting virtual machine metrics
//
// This example logs in and builds the enriched metric catalog for every
// virtual machine in the inventory.
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//	    "time"
//
//	    sdk "github.com/vtelemetry/vsphere_sdk"
//	    "github.com/vtelemetry/vsphere_sdk/config"
//	)
//
//	func main() {
//	    clientCfg := config.NewClientConfig().
//	        WithEndpoint("https://vcenter.local/sdk").
//	        WithCredentials("monitor@vsphere.local", "secret").
//	        WithMinCallInterval(200 * time.Millisecond)
//
//	    client, err := sdk.NewClient(clientCfg, sdk.DefaultConfig().WithDevelopmentLogger())
//	    if err != nil {
//	        log.Fatalf("failed to create client: %v", err)
//	    }
//	    defer client.Close()
//
//	    ctx := context.Background()
//	    if err := client.Login(ctx); err != nil {
//	        log.Fatalf("login failed: %v", err)
//	    }
//
//	    result, err := client.VirtualMachineMetrics(ctx)
//	    if err != nil {
//	        log.Fatalf("metric pipeline failed: %v", err)
//	    }
//
//	    for _, obj := range result.Objects {
//	        fmt.Printf("%s (%s): %d metrics\n", obj.Name, obj.Obj.Value, len(obj.Metrics))
//	    }
//	}
//
// # Error classification
//
// Every failure wraps one of the sentinel errors in the common package
// (ErrConfig, ErrValidation, ErrSession, ErrTransport, ErrProtocol), so
// callers can classify with errors.Is. The SDK never retries internally.
//
// # Pacing and timeouts
//
// A configured minimum call interval is enforced process-wide across all
// operations sharing a client, and every call carries a bounded timeout so
// a hung endpoint aborts the pipeline instead of blocking it.
package sdk
