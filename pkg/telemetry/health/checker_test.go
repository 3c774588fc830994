package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestChecker_ReadinessAllHealthy(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("audit", func(context.Context) error { return nil })
	c.Register("config_db", func(context.Context) error { return nil })

	st := c.Readiness(context.Background())
	if st.Status != StatusOK {
		t.Fatalf("status = %q; want ok", st.Status)
	}
	if len(st.Checks) != 2 {
		t.Fatalf("checks = %d; want 2", len(st.Checks))
	}
}

func TestChecker_ReadinessOneFailing(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("audit", func(context.Context) error { return nil })
	c.Register("config_db", func(context.Context) error { return errors.New("database is locked") })

	st := c.Readiness(context.Background())
	if st.Status != StatusUnhealthy {
		t.Fatalf("status = %q; want unhealthy", st.Status)
	}
	if st.Checks["config_db"].Message != "database is locked" {
		t.Errorf("message = %q", st.Checks["config_db"].Message)
	}
	if st.Checks["audit"].Status != StatusOK {
		t.Errorf("audit status = %q", st.Checks["audit"].Status)
	}
}

func TestChecker_CheckTimeout(t *testing.T) {
	c := NewChecker(10 * time.Millisecond)
	c.Register("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	st := c.Readiness(context.Background())
	if st.Status != StatusUnhealthy {
		t.Fatalf("status = %q; want unhealthy after timeout", st.Status)
	}
}

func TestChecker_Liveness(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("failing", func(context.Context) error { return errors.New("down") })
	if st := c.Liveness(); st.Status != StatusOK {
		t.Errorf("liveness = %q; component checks must not affect it", st.Status)
	}
}
