package sftpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/encoding/charmap"
)

func TestLocaleCharset(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_CTYPE", "")
	t.Setenv("LANG", "")
	assert.Equal(t, "", localeCharset())

	t.Setenv("LANG", "en_US.UTF-8")
	assert.Equal(t, "UTF-8", localeCharset())

	t.Setenv("LC_CTYPE", "de_DE.ISO-8859-15@euro")
	assert.Equal(t, "ISO-8859-15", localeCharset(), "LC_CTYPE beats LANG, modifier is stripped")

	t.Setenv("LC_ALL", "C")
	assert.Equal(t, "", localeCharset(), "C locale names no charset")
}

func TestWorkerConversion(t *testing.T) {
	s := &Server{
		proto:     protoV4,
		localeEnc: charmap.ISO8859_1,
	}
	w := s.newWorker()

	local, err := w.toLocal("café")
	assert.NoError(t, err)
	assert.Equal(t, "caf\xe9", local, "UTF-8 from the wire becomes Latin-1 locally")

	wire, err := w.toWire("caf\xe9")
	assert.NoError(t, err)
	assert.Equal(t, "café", wire)

	// v3 strings pass through regardless of locale.
	s.proto = protoV3
	pass, err := w.toLocal("café")
	assert.NoError(t, err)
	assert.Equal(t, "café", pass)
}
