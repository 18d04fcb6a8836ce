package sftpd

import (
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// localeEncoding resolves the host locale's character encoding the way
// nl_langinfo(CODESET) would: from LC_ALL, LC_CTYPE, or LANG, in that order.
// A UTF-8, C, or unset locale needs no conversion and yields nil. The
// lookup runs once per process; the locale does not change underneath a
// running server.
var localeEncoding = sync.OnceValues(func() (encoding.Encoding, error) {
	name := localeCharset()
	switch strings.ToUpper(name) {
	case "", "C", "POSIX", "UTF8", "UTF-8", "ANSI_X3.4-1968", "US-ASCII", "ASCII":
		return nil, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, errors.Errorf("unsupported locale charset %q", name)
	}
	return enc, nil
})

func localeCharset() string {
	locale := ""
	for _, v := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if locale = os.Getenv(v); locale != "" {
			break
		}
	}

	// "en_GB.ISO-8859-15@euro" -> "ISO-8859-15"
	if i := strings.IndexByte(locale, '.'); i >= 0 {
		locale = locale[i+1:]
	} else {
		locale = ""
	}
	if i := strings.IndexByte(locale, '@'); i >= 0 {
		locale = locale[:i]
	}
	return locale
}
