package appfs

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFS(t *testing.T) {
	files := []string{
		"migrations/00001_create_users.sql",
		"assets/common-passwords.txt.gz",
		"assets/templates/email/_base.txt",
		"assets/templates/email/_base.gohtml",
		"assets/templates/email/password_reset.txt",
		"assets/templates/email/password_reset.gohtml",
	}
	for _, name := range files {
		t.Run(name, func(t *testing.T) {
			_, err := fs.Stat(FS, name)
			assert.NoError(t, err)
		})
	}
}
