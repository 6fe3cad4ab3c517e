package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/logging"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.NewNop(), &fakeAccounts{}, testSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.NewNop(), &fakeAccounts{}, testSecret)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected listen error for invalid port")
	}
}

func TestServiceDesc_MethodsMatchServer(t *testing.T) {
	want := map[string]bool{
		"AccountStatus":   true,
		"Login":           true,
		"ResetPassword":   true,
		"SetPassword":     true,
		"ResolveProperty": true,
	}
	if len(ServiceDesc.Methods) != len(want) {
		t.Fatalf("got %d methods, want %d", len(ServiceDesc.Methods), len(want))
	}
	for _, m := range ServiceDesc.Methods {
		if !want[m.MethodName] {
			t.Fatalf("unexpected method %q", m.MethodName)
		}
	}

	var _ AccountGovernanceServer = (*GRPCServer)(nil)
}
