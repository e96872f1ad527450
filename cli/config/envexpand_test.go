package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("SIGBENCH_T_HOST", "cache.internal")
	t.Setenv("SIGBENCH_T_TOKEN", "secret")
	t.Setenv("SIGBENCH_T_EMPTY", "")

	tests := []struct {
		name, in, want string
	}{
		{"set", "addr: ${SIGBENCH_T_HOST}", "addr: cache.internal"},
		{"unset", "addr: ${SIGBENCH_T_UNSET}", "addr: "},
		{"default when unset", "n: ${SIGBENCH_T_UNSET:-4096}", "n: 4096"},
		{"default when empty", "n: ${SIGBENCH_T_EMPTY:-4096}", "n: 4096"},
		{"default ignored when set", "${SIGBENCH_T_TOKEN:-dev}", "secret"},
		{"empty default", "x${SIGBENCH_T_UNSET:-}y", "xy"},
		{"default with colon", "${SIGBENCH_T_UNSET:-redis://localhost:6379}", "redis://localhost:6379"},
		{"multiple", "${SIGBENCH_T_HOST}/${SIGBENCH_T_TOKEN}", "cache.internal/secret"},
		{"escaped", "keep $${SIGBENCH_T_HOST}", "keep ${SIGBENCH_T_HOST}"},
		{"no refs", "payload_size: 5242880", "payload_size: 5242880"},
		{"bare dollar", "cost: $5", "cost: $5"},
		{"invalid name", "${1ABC}", "${1ABC}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.in); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpandEnv_MultilineYAML(t *testing.T) {
	t.Setenv("SIGBENCH_T_HOST", "cache.internal")
	t.Setenv("SIGBENCH_T_TOKEN", "secret")

	in := `adapter:
  type: webhook
  url: https://${SIGBENCH_T_HOST}/hooks
  headers:
    Authorization: Bearer ${SIGBENCH_T_TOKEN}`
	want := `adapter:
  type: webhook
  url: https://cache.internal/hooks
  headers:
    Authorization: Bearer secret`

	if got := ExpandEnv(in); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}
