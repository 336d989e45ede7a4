package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipkoec77/Edureach/core"
	"github.com/kipkoec77/Edureach/tests"
)

func TestEmailMessage_Render(t *testing.T) {
	conf := core.NewTestConfig()
	conf.FrontendBaseURL = "https://edureach.test"
	core.ParseEmailTemplates(conf, testutil.NewLogger(conf))

	msg := core.EmailMessage{
		TemplateName: "password_reset",
		TemplateData: map[string]string{"Name": "Hero", "UID": "uid", "Token": "tok"},
	}
	require.NoError(t, msg.Render())

	link := "https://edureach.test/password-reset/uid/tok"
	assert.Contains(t, msg.TextContent, "Hello Hero,")
	assert.Contains(t, msg.TextContent, link)
	assert.Contains(t, msg.TextContent, "The Edureach Team", "base layout")
	assert.Contains(t, msg.HTMLContent, link)
}
