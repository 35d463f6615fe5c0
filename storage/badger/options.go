package badger

import (
	"github.com/dgraph-io/badger/v3"
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/storage"
)

// logger routes badger's own logging through agstore.
type logger struct{}

func (logger) Errorf(format string, args ...interface{})   { agstore.Errorf("badger: "+format, args...) }
func (logger) Warningf(format string, args ...interface{}) { agstore.Warningf("badger: "+format, args...) }
func (logger) Infof(format string, args ...interface{})    { agstore.Debugf("badger: "+format, args...) }
func (logger) Debugf(format string, args ...interface{})   { agstore.Debugf("badger: "+format, args...) }

func getOptions(path string, config storage.Config) (badger.Options, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(logger{}).
		WithNumVersionsToKeep(DefaultVersionsToKeep).
		WithSyncWrites(DefaultSyncWrites)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(logger{})
	}

	readOnly, found, err := config.GetBool("ReadOnly")
	if err != nil {
		return opts, err
	}
	if found {
		opts = opts.WithReadOnly(readOnly)
	}

	valueSizeThresh, found, err := config.GetInt("ValueThreshold")
	if err != nil {
		return opts, err
	}
	if found {
		opts = opts.WithValueThreshold(valueSizeThresh)
	}

	vlogSize, found, err := config.GetInt("ValueLogFileSize")
	if err != nil {
		return opts, err
	}
	if found {
		opts = opts.WithValueLogFileSize(vlogSize)
	}

	syncWrites, found, err := config.GetBool("SyncWrites")
	if err != nil {
		return opts, err
	}
	if found {
		opts = opts.WithSyncWrites(syncWrites)
	}
	return opts, nil
}
