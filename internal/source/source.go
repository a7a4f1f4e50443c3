// Package source fetches input tables from local paths or FTP servers and
// decodes them into frames.
package source

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jlaffaye/ftp"
	"github.com/xuri/excelize/v2"

	"github.com/lox/inningcast/internal/frame"
)

const ftpTimeout = 30 * time.Second

// Fetch returns the raw bytes at location, which is either a filesystem path
// or an ftp://[user[:password]@]host[:port]/path URL.
func Fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "ftp://") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, errors.Wrap(err, "parse ftp url")
		}
		return fetchFTP(ctx, u)
	}
	return os.ReadFile(location)
}

func fetchFTP(ctx context.Context, u *url.URL) ([]byte, error) {
	host := u.Host
	if u.Port() == "" {
		host += ":21"
	}
	conn, err := ftp.Dial(host, ftp.DialWithTimeout(ftpTimeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "ftp dial")
	}
	defer conn.Quit()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return nil, errors.Wrap(err, "ftp login")
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return nil, errors.Wrap(err, "ftp retr")
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return body, nil
}

// IsSpreadsheet reports whether location names an Excel workbook.
func IsSpreadsheet(location string) bool {
	p := location
	if u, err := url.Parse(location); err == nil && u.Scheme == "ftp" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Decode parses data as a workbook or CSV depending on the location's
// extension.
func Decode(location string, data []byte) (*frame.Frame, error) {
	if IsSpreadsheet(location) {
		return DecodeSheet(data)
	}
	return frame.ReadCSV(bytes.NewReader(data))
}

// DecodeSheet reads the first worksheet; its first row is the header.
func DecodeSheet(data []byte) (*frame.Frame, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheets[0])
	}
	if len(rows) == 0 {
		return nil, errors.Newf("sheet %q is empty", sheets[0])
	}
	return frame.FromRecords(rows[0], rows[1:])
}
