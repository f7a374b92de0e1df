package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeArgs(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{[]string{"--mode=notification-hub"}, []string{"notification-hub"}},
		{[]string{"--mode", "hub", "--port=4000"}, []string{"notification-hub", "--port=4000"}},
		{[]string{"--port=3001", "--mode=products"}, []string{"product-service", "--port=3001"}},
		{[]string{"users", "--port=1"}, []string{"user-service", "--port=1"}},
		{[]string{"user-service", "--max-concurrent=5"}, []string{"user-service", "--max-concurrent=5"}},
		{[]string{"--mode=kitchen"}, []string{"kitchen"}},
		{[]string{"--help"}, []string{"--help"}},
		{[]string{}, []string{}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeArgs(tc.in), "%v", tc.in)
	}
}

func TestRootCmd_Help(t *testing.T) {
	root := NewRootCmd(context.Background())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--help"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "notification-hub")
	assert.Contains(t, out.String(), "shop-events --mode=notification-hub")
}

func TestRootCmd_RejectsBadPort(t *testing.T) {
	root := NewRootCmd(context.Background())
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"notification-hub", "--port=0"})

	err := root.Execute()
	assert.EqualError(t, err, "--port must be between 1 and 65535")
}

func TestRootCmd_RejectsUnknownMode(t *testing.T) {
	root := NewRootCmd(context.Background())
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(NormalizeArgs([]string{"--mode=kitchen"}))

	assert.Error(t, root.Execute())
}

func TestDefaultPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	assert.Equal(t, 8080, defaultPort(3002))

	t.Setenv("HTTP_PORT", "abc")
	assert.Equal(t, 3002, defaultPort(3002))
}
