package memory_test

import (
	"testing"

	"github.com/PabloGalante/noto-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/noto-agent/internal/adapters/storage/storetest"
	"github.com/PabloGalante/noto-agent/internal/domain"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Store {
		return memory.NewStore()
	})
}
