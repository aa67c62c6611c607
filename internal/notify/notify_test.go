package notify_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"uptask/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Confirmation(t *testing.T) {
	content, err := notify.Render(notify.KindConfirmation, "http://localhost:5173", 10*time.Minute,
		notify.Message{Email: "ana@example.com", Name: "Ana", Token: "042137"})
	require.NoError(t, err)

	assert.Equal(t, "UpTask - Confirma tu cuenta", content.Subject)
	assert.Contains(t, content.HTML, `href="http://localhost:5173/auth/confirm-account"`)
	assert.Contains(t, content.HTML, "<b>042137</b>")
	assert.Contains(t, content.HTML, "Hola: Ana")
	assert.Contains(t, content.HTML, "expira en 10 minutos")
}

func TestRender_ResetEscapesName(t *testing.T) {
	content, err := notify.Render(notify.KindReset, "https://app.example.com", 15*time.Minute,
		notify.Message{Name: "<script>x</script>", Token: "123456"})
	require.NoError(t, err)

	assert.Equal(t, "UpTask - Reestablece tu password", content.Subject)
	assert.Contains(t, content.HTML, "/auth/new-password")
	assert.Contains(t, content.HTML, "expira en 15 minutos")
	assert.NotContains(t, content.HTML, "<script>")
}

func TestRender_UnknownKind(t *testing.T) {
	_, err := notify.Render("welcome", "", time.Minute, notify.Message{})
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, n.SendConfirmation(context.Background(), notify.Message{Email: "ana@example.com", Token: "111111"}))
	require.NoError(t, n.SendPasswordReset(context.Background(), notify.Message{Email: "ana@example.com", Token: "222222"}))

	assert.Contains(t, buf.String(), `"msg":"confirmation email"`)
	assert.Contains(t, buf.String(), `"msg":"password reset email"`)
	assert.Contains(t, buf.String(), `"email":"ana@example.com"`)
	assert.NotContains(t, buf.String(), "111111")
	assert.NotContains(t, buf.String(), "222222")
	assert.NotContains(t, buf.String(), `"token"`)
}
