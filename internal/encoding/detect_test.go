package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/tally/internal/encoding"
)

func decode(t *testing.T, input []byte) string {
	t.Helper()

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "người nợ;món;số tiền\nBình;Phở bò;45.000\n"
	assert.Equal(t, input, decode(t, []byte(input)))
}

func TestNewUTF8Reader_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("debtor;item;amount\n")...)
	assert.Equal(t, "debtor;item;amount\n", decode(t, input))
}

func TestNewUTF8Reader_UTF16LEBOM(t *testing.T) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("Café;12,50\n"))
	require.NoError(t, err)

	assert.Equal(t, "Café;12,50\n", decode(t, encoded))
}

func TestNewUTF8Reader_Latin1(t *testing.T) {
	// Windows-1252: ç = 0xE7, ã = 0xE3
	latin1 := []byte{
		'D', 'e', 's', 'c', 'r', 'i', 0xE7, 0xE3, 'o', ';',
		'M', 'o', 'n', 't', 'a', 'n', 't', 'e', '\n',
	}

	assert.Equal(t, "Descrição;Montante\n", decode(t, latin1))
}

func TestNewUTF8Reader_Windows1258(t *testing.T) {
	encoded, err := charmap.Windows1258.NewEncoder().Bytes([]byte("Đà;cà phê;20000\n"))
	require.NoError(t, err)

	got := decode(t, encoded)
	assert.Contains(t, got, "cà phê")
	assert.Contains(t, got, "20000")
}
