//go:build !linux && !darwin

package reader

import (
	"os"

	"github.com/ilogtail/core/model"
)

// devInodeFromStat has no portable equivalent on platforms without a unix
// stat_t (e.g. Windows' file index pair lives elsewhere); callers there get
// an invalid DevInode and must rely on path identity only, matching the
// original's own platform split between unix inode checks and a Windows
// file-index fallback.
func devInodeFromStat(fi os.FileInfo) model.DevInode {
	return model.DevInode{}
}
