package platform

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rcornwell/cryptocore/internal/nvstore"
)

// FileBacked persists the two 64-byte NV pages to a flat file, standing in
// for on-chip flash that survives a daemon restart. It embeds Simulated
// for every other capability.
type FileBacked struct {
	*Simulated
	file *os.File
}

// OpenFileBacked opens (creating if necessary) path as the backing store
// for store's two NV pages. If the file already holds data, it is loaded
// into store before returning; otherwise store's current contents are
// written out as the file's initial contents. The device identity is not
// persisted here; it is latched the same way Simulated latches it, on the
// first ReadDeviceUID call.
func OpenFileBacked(path string, store *nvstore.Store, log *slog.Logger) (*FileBacked, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open NV backing file: %w", err)
	}

	fb := &FileBacked{
		Simulated: NewSimulated(store, log),
		file:      f,
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat NV backing file: %w", err)
	}

	if info.Size() >= 2*nvstore.PageSize {
		var buf0, buf1 [nvstore.PageSize]byte
		if _, err := f.ReadAt(buf0[:], 0); err != nil {
			return nil, fmt.Errorf("read NV page 0: %w", err)
		}
		if _, err := f.ReadAt(buf1[:], nvstore.PageSize); err != nil {
			return nil, fmt.Errorf("read NV page 1: %w", err)
		}
		store.Page0 = nvstore.DecodePage0(buf0)
		store.Page1 = nvstore.DecodePage1(buf1)
	} else {
		if err := fb.writePage(Page0, nvstore.EncodePage0(&store.Page0)); err != nil {
			return nil, err
		}
		if err := fb.writePage(Page1, nvstore.EncodePage1(&store.Page1)); err != nil {
			return nil, err
		}
	}

	return fb, nil
}

func (fb *FileBacked) writePage(page Page, buf [nvstore.PageSize]byte) error {
	off := int64(0)
	if page == Page1 {
		off = nvstore.PageSize
	}
	if _, err := fb.file.WriteAt(buf[:], off); err != nil {
		return fmt.Errorf("write NV page %d: %w", page, err)
	}
	return fb.file.Sync()
}

// NVWritePage persists contents to the backing file before updating the
// in-memory mirror, so a crash between the two leaves the file as the
// source of truth on next start.
func (fb *FileBacked) NVWritePage(page Page, contents [nvstore.PageSize]byte) bool {
	if err := fb.writePage(page, contents); err != nil {
		fb.Simulated.log.Error("NV page write failed", "page", page, "err", err)
		return false
	}
	return fb.Simulated.NVWritePage(page, contents)
}

// Close releases the backing file handle.
func (fb *FileBacked) Close() error {
	return fb.file.Close()
}
