package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_WaitsForLine(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\n"), &out)

	require.NoError(t, p.WaitForUser(context.Background(), "solve the captcha"))
	assert.Contains(t, out.String(), "[USER ACTION REQUIRED] solve the captcha")
	assert.Contains(t, out.String(), "Press Enter when done...")
}

func TestPrompter_DefaultMessage(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader(""), &out)

	require.NoError(t, p.WaitForUser(context.Background(), ""))
	assert.Contains(t, out.String(), "Your turn in the browser.")
}

func TestPrompter_ContextCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := NewPrompter(r, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.WaitForUser(ctx, "never answered")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
