package utils

import (
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

var injectSourceDir string

func init() {
	_, file, _, _ := runtime.Caller(0)

	injectSourceDir = regexp.MustCompile(`utils.source\.go`).ReplaceAllString(file, "")
}

// FileWithLineNum returns the first caller outside of this module, so error
// wraps point at the application frame that produced them rather than at
// the resolver internals.
func FileWithLineNum() string {
	for i := 2; i < 15; i++ {
		_, file, line, ok := runtime.Caller(i)
		if ok && (!strings.HasPrefix(file, injectSourceDir) || strings.HasSuffix(file, "_test.go")) {
			return file + ":" + strconv.FormatInt(int64(line), 10)
		}
	}

	return ""
}
