package backend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"translatex/internal/types"
)

func TestEcho(t *testing.T) {
	in := "Hello {{T0KEN5EP1}} world\n{CH4NK_SEP2}\n"
	got, err := Echo{}.Translate(context.Background(), in, "en", "ru")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != in {
		t.Errorf("Translate() = %q, want %q", got, in)
	}
}

func TestFunc(t *testing.T) {
	var b Backend = Func(func(_ context.Context, text, src, dst string) (string, error) {
		return src + ">" + dst + ":" + strings.ToUpper(text), nil
	})
	got, err := b.Translate(context.Background(), "abc", "en", "de")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "en>de:ABC" {
		t.Errorf("Translate() = %q", got)
	}
}

func TestNameOf(t *testing.T) {
	type plain struct{ Backend }
	tests := []struct {
		b    Backend
		want string
	}{
		{Echo{}, "echo"},
		{Func(nil), "func"},
		{NewGoogle(GoogleConfig{}), "google"},
		{newOpenAIWithGenerator(nil, "m", RetryPolicy{}), "openai"},
		{plain{}, "custom"},
	}
	for _, tt := range tests {
		if got := NameOf(tt.b); got != tt.want {
			t.Errorf("NameOf(%T) = %q, want %q", tt.b, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      types.Config
		wantName string
		wantCode types.ErrorCode
	}{
		{name: "echo", cfg: types.Config{Backend: "echo"}, wantName: "echo"},
		{name: "google", cfg: types.Config{Backend: "google", Timeout: time.Second}, wantName: "google"},
		{name: "default is google", cfg: types.Config{}, wantName: "google"},
		{name: "openai without key", cfg: types.Config{Backend: "openai"}, wantCode: types.ErrConfig},
		{name: "unknown", cfg: types.Config{Backend: "yandex"}, wantCode: types.ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(ctx, &tt.cfg)
			if tt.wantCode != "" {
				if !types.IsCode(err, tt.wantCode) {
					t.Fatalf("New() error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := NameOf(b); got != tt.wantName {
				t.Errorf("NameOf(New()) = %q, want %q", got, tt.wantName)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("x"), false},
		{"network", types.NewAppError(types.ErrNetwork, "down", nil), true},
		{"rate limit", types.NewAppError(types.ErrAPIRateLimit, "slow down", nil), true},
		{"server error", types.NewAppErrorWithDetails(types.ErrBackend, "server", "status 503: x", nil), true},
		{"client error", types.NewAppErrorWithDetails(types.ErrBackend, "bad", "status 400: x", nil), false},
		{"config", types.NewAppError(types.ErrConfig, "key", nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryPolicy(t *testing.T) {
	ctx := context.Background()
	transient := types.NewAppError(types.ErrNetwork, "down", nil)
	permanent := types.NewAppErrorWithDetails(types.ErrBackend, "bad", "status 400", nil)

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		p := RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}
		got, err := p.do(ctx, "test", func() (string, error) {
			calls++
			if calls < 3 {
				return "", transient
			}
			return "ok", nil
		})
		if err != nil || got != "ok" || calls != 3 {
			t.Errorf("do() = %q, %v after %d calls", got, err, calls)
		}
	})

	t.Run("gives up with a backend error", func(t *testing.T) {
		calls := 0
		p := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}
		_, err := p.do(ctx, "test", func() (string, error) {
			calls++
			return "", transient
		})
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
		if !types.IsCode(err, types.ErrBackend) {
			t.Errorf("error = %v, want code %s", err, types.ErrBackend)
		}
		if !errors.Is(err, transient) {
			t.Errorf("error does not wrap the last failure")
		}
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		calls := 0
		p := RetryPolicy{MaxRetries: 5, BaseDelay: time.Millisecond}
		_, err := p.do(ctx, "test", func() (string, error) {
			calls++
			return "", permanent
		})
		if calls != 1 || err != permanent {
			t.Errorf("do() error = %v after %d calls", err, calls)
		}
	})

	t.Run("zero retries means one attempt", func(t *testing.T) {
		calls := 0
		_, _ = RetryPolicy{}.do(ctx, "test", func() (string, error) {
			calls++
			return "", transient
		})
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("cancelled context stops waiting", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		p := RetryPolicy{MaxRetries: 3, BaseDelay: time.Hour}
		_, err := p.do(cctx, "test", func() (string, error) { return "", transient })
		if !types.IsCode(err, types.ErrNetwork) || !errors.Is(err, context.Canceled) {
			t.Errorf("do() error = %v, want cancellation", err)
		}
	})
}
