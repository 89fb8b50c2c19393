package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("VOYAGE_TEST_MODE") == "" {
			_ = os.Setenv("VOYAGE_TEST_MODE", "1")
		}
	})
}
