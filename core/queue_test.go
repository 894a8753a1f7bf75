package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ValidQueue(t *testing.T) {
	tests := []struct {
		name    string
		queue   Queue
		wantErr bool
	}{
		{"default", QueueDefault, false},
		{"system", QueueSystem, false},
		{"alphanumeric", Queue("orders-v2_prod"), false},
		{"max length", Queue(strings.Repeat("a", 63)), false},
		{"empty", Queue(""), true},
		{"too long", Queue(strings.Repeat("a", 64)), true},
		{"whitespace", Queue("my queue"), true},
		{"slash", Queue("orders/eu"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidQueue(tt.queue)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
