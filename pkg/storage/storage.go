package storage

import (
	"github.com/gitgist/gitgist/pkg/config"
	"github.com/gitgist/gitgist/pkg/storage/database"
)

type Services struct {
	Database database.Database
}

func New(c config.GitGistConfig) (*Services, error) {
	rc := &Services{}

	var err error
	if rc.Database, err = database.NewConnection(c.Database); err != nil {
		return nil, err
	}

	return rc, nil
}
