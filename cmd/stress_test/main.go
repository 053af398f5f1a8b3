package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/food-shelter/internal/adapter/handler"
)

const (
	defaultAddr   = "localhost:50051"
	totalRequests = 50
)

// Fires concurrent deletes at a single stock item through a running server and
// checks that exactly one of them reports success.
func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	addr := os.Getenv("GRPC_ADDR")
	if addr == "" {
		addr = defaultAddr
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect")
	}
	defer conn.Close()

	client := handler.NewInventoryClient(conn)
	ctx := handler.WithOwner(context.Background(), "stress-"+uuid.NewString())

	created, err := client.CreateStockItem(ctx, &handler.CreateStockItemRequest{
		RequestID:    uuid.NewString(),
		ItemName:     "Stress Rice",
		Category:     "Grains",
		Quantity:     decimal.NewFromInt(100),
		Unit:         "kg",
		MinimumStock: 10,
	})
	if err != nil || !created.Success {
		logger.Fatal().Err(err).Interface("reply", created).Msg("failed to create item")
	}
	itemID := created.Item.ID

	// Concurrent patches first: every one must apply and the row must stay consistent.
	var patched atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			reply, err := client.PatchStockItem(ctx, &handler.PatchStockItemRequest{
				ID: itemID,
				Fields: map[string]string{
					"itemName": "Stress Rice",
					"category": "Grains",
					"quantity": fmt.Sprint(n),
				},
			})
			if err == nil && reply.Success {
				patched.Add(1)
			}
		}(i)
	}
	wg.Wait()

	// Then race the deletes.
	var successCount, failCount atomic.Int32
	start := time.Now()
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reply, err := client.DeleteStockItem(ctx, &handler.DeleteStockItemRequest{ID: itemID})
			if err == nil && reply.Success {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Concurrent Patches: %d/%d applied\n", patched.Load(), totalRequests)
	fmt.Printf("Delete Requests:    %d\n", totalRequests)
	fmt.Printf("Successful:         %d\n", success)
	fmt.Printf("Failed:             %d\n", fail)
	fmt.Printf("Duration:           %v\n", elapsed)
	fmt.Println("==========================================")

	if patched.Load() == totalRequests {
		fmt.Println("PASS: every concurrent patch applied")
	} else {
		fmt.Printf("FAIL: expected %d patches, got %d\n", totalRequests, patched.Load())
	}

	if success == 1 && fail == totalRequests-1 {
		fmt.Printf("PASS: exactly 1 delete succeeded, %d reported not found\n", fail)
	} else {
		fmt.Printf("FAIL: expected 1 success/%d fail, got %d/%d\n", totalRequests-1, success, fail)
	}
}
