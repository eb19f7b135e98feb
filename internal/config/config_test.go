package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Scheme.Name != "wmfapp" {
		t.Fatalf("scheme = %q, want wmfapp", c.Scheme.Name)
	}
	if c.Scheme.QueueSize != 64 {
		t.Fatalf("queue size = %d, want 64", c.Scheme.QueueSize)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("APPSCHEME_SCHEME_NAME", "app")
	t.Setenv("APPSCHEME_SCHEME_ENVIRONMENT", "local")
	t.Setenv("APPSCHEME_LOG_WRITER", "console")
	t.Setenv("APPSCHEME_NETWORK_MAX_RETRIES", "5")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Scheme.Name != "app" {
		t.Fatalf("scheme = %q, want app", c.Scheme.Name)
	}
	if c.Scheme.Environment != "local" {
		t.Fatalf("environment = %q, want local", c.Scheme.Environment)
	}
	if len(c.Log.Writer) != 1 || c.Log.Writer[0] != "console" {
		t.Fatalf("writers = %v, want [console]", c.Log.Writer)
	}
	if c.Network.MaxRetries != 5 {
		t.Fatalf("max retries = %d, want 5", c.Network.MaxRetries)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty scheme", mutate: func(c *Config) { c.Scheme.Name = "" }, wantErr: true},
		{name: "transport scheme", mutate: func(c *Config) { c.Scheme.Name = "https" }, wantErr: true},
		{name: "empty upstream", mutate: func(c *Config) { c.CDP.Upstream = "" }, wantErr: true},
		{name: "zero queue", mutate: func(c *Config) { c.Scheme.QueueSize = 0 }, wantErr: true},
		{name: "redis without addr", mutate: func(c *Config) { c.Network.Validators = "redis" }, wantErr: true},
		{name: "redis with addr", mutate: func(c *Config) {
			c.Network.Validators = "redis"
			c.Network.RedisAddr = "127.0.0.1:6379"
		}},
		{name: "unknown backend", mutate: func(c *Config) { c.Network.Validators = "memcached" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
