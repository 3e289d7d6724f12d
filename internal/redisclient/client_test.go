package redisclient

import (
	"testing"
	"time"
)

func TestOptionsNormalized(t *testing.T) {
	cases := []struct {
		name        string
		in          Options
		wantTimeout time.Duration
		wantPool    int
	}{
		{
			name:        "zero values get defaults",
			in:          Options{Addr: "127.0.0.1:6379"},
			wantTimeout: defaultCommandTimeout,
			wantPool:    defaultPoolSize,
		},
		{
			name:        "explicit values kept",
			in:          Options{Addr: "127.0.0.1:6379", CommandTimeout: 2 * time.Second, PoolSize: 4},
			wantTimeout: 2 * time.Second,
			wantPool:    4,
		},
		{
			name:        "negative values treated as unset",
			in:          Options{Addr: "127.0.0.1:6379", CommandTimeout: -1, PoolSize: -1},
			wantTimeout: defaultCommandTimeout,
			wantPool:    defaultPoolSize,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.normalized()
			if got.CommandTimeout != tc.wantTimeout {
				t.Errorf("CommandTimeout = %s, want %s", got.CommandTimeout, tc.wantTimeout)
			}
			if got.PoolSize != tc.wantPool {
				t.Errorf("PoolSize = %d, want %d", got.PoolSize, tc.wantPool)
			}
			if got.Addr != tc.in.Addr {
				t.Errorf("Addr = %q, want %q", got.Addr, tc.in.Addr)
			}
		})
	}
}
