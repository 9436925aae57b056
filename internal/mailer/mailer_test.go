package mailer

import (
	"context"
	"errors"
	"testing"

	"vividplate/internal/config"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	sent []*mail.SGMailV3
	resp *rest.Response
	err  error
}

func (f *fakeClient) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, email)
	return f.resp, f.err
}

func TestNew_SelectsBackend(t *testing.T) {
	_, isLog := New(&config.Config{}).(*LogMailer)
	assert.True(t, isLog)

	_, isSendGrid := New(&config.Config{SendGridAPIKey: "SG.x", MailFrom: "a@b.c"}).(*SendGridMailer)
	assert.True(t, isSendGrid)
}

func TestSendGridMailer_Send(t *testing.T) {
	client := &fakeClient{resp: &rest.Response{StatusCode: 202}}
	m := &SendGridMailer{client: client, from: mail.NewEmail("VividPlate", "no-reply@vividplate.test")}

	msg := PasswordReset("Ada", "ada@example.com", "https://app.example.com/reset?token=abc", 60)
	require.NoError(t, m.Send(context.Background(), msg))
	require.Len(t, client.sent, 1)
	assert.Equal(t, "Reset your VividPlate password", client.sent[0].Subject)
	assert.Equal(t, "ada@example.com", client.sent[0].Personalizations[0].To[0].Address)
}

func TestSendGridMailer_Errors(t *testing.T) {
	m := &SendGridMailer{client: &fakeClient{err: errors.New("dial tcp")}, from: mail.NewEmail("", "x@y.z")}
	assert.ErrorContains(t, m.Send(context.Background(), Message{ToEmail: "a@b.c"}), "dial tcp")

	m.client = &fakeClient{resp: &rest.Response{StatusCode: 401, Body: "unauthorized"}}
	assert.ErrorContains(t, m.Send(context.Background(), Message{ToEmail: "a@b.c"}), "status 401")
}

func TestPasswordReset(t *testing.T) {
	msg := PasswordReset("", "bob@example.com", "https://x/reset?token=<t>", 30)
	assert.Equal(t, "bob@example.com", msg.ToName)
	assert.Contains(t, msg.Text, "30 minutes")
	assert.Contains(t, msg.HTML, "token=&lt;t&gt;")
	assert.NoError(t, LogMailer{}.Send(context.Background(), msg))
}
