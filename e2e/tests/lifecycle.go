package tests

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cornjacket/returns-service/e2e/client"
	"github.com/cornjacket/returns-service/e2e/runner"
)

func init() {
	runner.Register(&runner.Test{
		Name:        "return-lifecycle",
		Description: "Create a return, approve it, refund it, then delete it",
		Run:         runLifecycleTest,
	})
}

func runLifecycleTest(ctx context.Context, cfg *runner.Config) error {
	c := client.New(cfg.ReturnsURL)

	created, err := c.CreateReturn(ctx, cfg.ExistingOrderID, "arrived damaged")
	if err != nil {
		return fmt.Errorf("failed to create return: %w", err)
	}
	if created.Status != "created" || created.OrderID != cfg.ExistingOrderID {
		return fmt.Errorf("unexpected created return: %+v", created)
	}

	got, err := c.GetReturn(ctx, created.ID)
	if err != nil {
		return fmt.Errorf("failed to get return: %w", err)
	}
	if *got != *created {
		return fmt.Errorf("get returned %+v, want %+v", got, created)
	}

	for _, status := range []string{"approved", "refunded"} {
		updated, err := c.UpdateStatus(ctx, created.ID, status)
		if err != nil {
			return fmt.Errorf("failed to set status %s: %w", status, err)
		}
		if updated.Status != status {
			return fmt.Errorf("expected status %s, got %s", status, updated.Status)
		}
	}

	list, err := c.ListReturns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list returns: %w", err)
	}
	found := false
	for _, r := range list {
		if r.ID == created.ID {
			found = r.Status == "refunded"
		}
	}
	if !found {
		return fmt.Errorf("return %d missing from list or not refunded", created.ID)
	}

	if err := c.DeleteReturn(ctx, created.ID); err != nil {
		return fmt.Errorf("failed to delete return: %w", err)
	}
	if err := c.DeleteReturn(ctx, created.ID); client.StatusOf(err) != http.StatusNotFound {
		return fmt.Errorf("second delete: expected 404, got %v", err)
	}
	if _, err := c.GetReturn(ctx, created.ID); client.StatusOf(err) != http.StatusNotFound {
		return fmt.Errorf("get after delete: expected 404, got %v", err)
	}

	return nil
}
