package tests

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cornjacket/returns-service/e2e/client"
	"github.com/cornjacket/returns-service/e2e/runner"
)

func init() {
	runner.Register(&runner.Test{
		Name:        "return-validation",
		Description: "Invalid input and unknown orders are rejected without side effects",
		Run:         runValidationTest,
	})
}

func runValidationTest(ctx context.Context, cfg *runner.Config) error {
	c := client.New(cfg.ReturnsURL)

	before, err := c.ListReturns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list returns: %w", err)
	}

	rejected := []struct {
		name    string
		orderID int64
		reason  string
	}{
		{"order id zero", 0, "damaged"},
		{"reason too short", cfg.ExistingOrderID, "x"},
		{"reason too long", cfg.ExistingOrderID, strings.Repeat("a", 201)},
		{"unknown order", cfg.MissingOrderID, "damaged"},
	}
	for _, tc := range rejected {
		_, err := c.CreateReturn(ctx, tc.orderID, tc.reason)
		if client.StatusOf(err) != http.StatusBadRequest {
			return fmt.Errorf("%s: expected 400, got %v", tc.name, err)
		}
	}

	created, err := c.CreateReturn(ctx, cfg.ExistingOrderID, "wrong size")
	if err != nil {
		return fmt.Errorf("failed to create return: %w", err)
	}
	defer c.DeleteReturn(context.WithoutCancel(ctx), created.ID)

	if _, err := c.UpdateStatus(ctx, created.ID, "shipped"); client.StatusOf(err) != http.StatusBadRequest {
		return fmt.Errorf("invalid status: expected 400, got %v", err)
	}
	got, err := c.GetReturn(ctx, created.ID)
	if err != nil {
		return fmt.Errorf("failed to get return: %w", err)
	}
	if got.Status != "created" {
		return fmt.Errorf("status changed by rejected update: %s", got.Status)
	}

	after, err := c.ListReturns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list returns: %w", err)
	}
	if len(after) != len(before)+1 {
		return fmt.Errorf("expected exactly one new return, had %d now %d", len(before), len(after))
	}

	return nil
}
