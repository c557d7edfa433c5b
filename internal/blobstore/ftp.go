package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/mhutcheson/raingrid/internal/metrics"
	"github.com/mhutcheson/raingrid/internal/models"
)

// FTPStore reads the same key tree from an anonymous FTP mirror. Keys map
// to paths under root, so "rain_rate/2010/01/12/0730" is retrieved as
// root/rain_rate/2010/01/12/0730.
type FTPStore struct {
	host string // host:port
	root string
}

func NewFTPStore(host, root string) *FTPStore {
	return &FTPStore{host: host, root: strings.TrimRight(root, "/")}
}

func (s *FTPStore) dial() (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(s.host, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	if err := conn.Login("anonymous", "anonymous"); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("ftp login: %w", err)
	}
	return conn, nil
}

// splitPrefix separates a key prefix into the directory to list and the
// leading name fragment entries must match. A prefix ending in "/" names a
// whole directory and has no fragment.
func splitPrefix(prefix string) (dir, frag string) {
	if strings.HasSuffix(prefix, "/") {
		return prefix, ""
	}
	return path.Dir(prefix) + "/", path.Base(prefix)
}

// filterKeys turns directory entries into object keys, keeping only names
// that start with frag.
func filterKeys(dir, frag string, names []string) []string {
	var keys []string
	for _, name := range names {
		base := path.Base(name)
		if frag != "" && !strings.HasPrefix(base, frag) {
			continue
		}
		keys = append(keys, dir+base)
	}
	return keys
}

// missingDir reports whether a listing error is the server saying the
// directory does not exist (reply 550). Only that case is an empty day;
// timeouts, dropped connections and permission errors are real failures.
func missingDir(err error) bool {
	var proto *textproto.Error
	return errors.As(err, &proto) && proto.Code == ftp.StatusFileUnavailable
}

// List enumerates object keys under prefix. The prefix is split into its
// directory and a leading name fragment; entries in the directory whose
// names start with the fragment become keys.
func (s *FTPStore) List(ctx context.Context, prefix string) ([]string, error) {
	conn, err := s.dial()
	if err != nil {
		metrics.StoreFetches.WithLabelValues("ftp", "error").Inc()
		return nil, &models.FetchError{Err: err}
	}
	defer conn.Quit()

	dir, frag := splitPrefix(prefix)

	names, err := conn.NameList(s.root + "/" + strings.TrimRight(dir, "/"))
	if err != nil {
		if missingDir(err) {
			// A missing day directory means zero samples, not a failure.
			metrics.StoreFetches.WithLabelValues("ftp", "ok").Inc()
			return nil, nil
		}
		metrics.StoreFetches.WithLabelValues("ftp", "error").Inc()
		return nil, &models.FetchError{Err: fmt.Errorf("ftp nlst %s: %w", dir, err)}
	}

	keys := filterKeys(dir, frag, names)
	metrics.StoreFetches.WithLabelValues("ftp", "ok").Inc()
	return keys, nil
}

// Fetch retrieves one object's bytes.
func (s *FTPStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	conn, err := s.dial()
	if err != nil {
		metrics.StoreFetches.WithLabelValues("ftp", "error").Inc()
		return nil, &models.FetchError{Key: key, Err: err}
	}
	defer conn.Quit()

	resp, err := conn.Retr(s.root + "/" + key)
	if err != nil {
		metrics.StoreFetches.WithLabelValues("ftp", "error").Inc()
		return nil, &models.FetchError{Key: key, Err: fmt.Errorf("ftp retr: %w", err)}
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, &models.FetchError{Key: key, Err: fmt.Errorf("read body: %w", err)}
	}
	metrics.StoreFetches.WithLabelValues("ftp", "ok").Inc()
	metrics.FetchBytes.Add(float64(len(body)))
	return body, nil
}
