//go:build linux || darwin

package reader

import (
	"os"
	"syscall"

	"github.com/ilogtail/core/model"
)

// devInodeFromStat extracts the DevInode identity from a FileInfo obtained
// via os.Stat/os.Lstat on a unix-like platform.
func devInodeFromStat(fi os.FileInfo) model.DevInode {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return model.DevInode{}
	}
	return model.DevInode{Dev: uint64(st.Dev), Inode: uint64(st.Ino)}
}
