package storageprovider

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/dgraph-io/badger/v4"

	"github.com/callprofiler/callprofiler/internal/storageutil"
)

// Badger implements storageutil.ObjectHandler interface to handle object
// reads and writes against a local badger database, for deployments without
// a bucket.
type Badger struct {
	DB *badger.DB
}

// Put writes a file to the storage provider with name being the path.
func (b *Badger) Put(ctx context.Context, name string) (io.WriteCloser, error) {
	return &badgerWriter{
		buf:  &bytes.Buffer{},
		txn:  b.DB.NewTransaction(true),
		name: name,
	}, nil
}

// Get reads a file from the storage provider with name being the path.
// If a key was not found, it will return ErrObjectNotFound.
func (b *Badger) Get(ctx context.Context, name string) (storageutil.ReadSizeCloser, error) {
	txn := b.DB.NewTransaction(false)
	item, err := txn.Get([]byte(name))
	if err != nil {
		txn.Discard()
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storageutil.ErrObjectNotFound
		}
		return nil, err
	}

	value, err := item.ValueCopy(nil)
	if err != nil {
		txn.Discard()
		return nil, err
	}

	return &badgerReader{
		txn:    txn,
		reader: bytes.NewReader(value),
		size:   item.ValueSize(),
	}, nil
}

// badgerWriter buffers the object and stores it as one value on Close.
type badgerWriter struct {
	buf  *bytes.Buffer
	txn  *badger.Txn
	name string
}

func (bw *badgerWriter) Write(p []byte) (int, error) {
	return bw.buf.Write(p)
}

func (bw *badgerWriter) Close() error {
	err := bw.txn.Set([]byte(bw.name), bw.buf.Bytes())
	if err != nil {
		bw.txn.Discard()
		return err
	}
	return bw.txn.Commit()
}

// badgerReader implements storageutil.ReadSizeCloser
type badgerReader struct {
	txn    *badger.Txn
	reader io.Reader
	size   int64
}

func (br *badgerReader) Read(p []byte) (n int, err error) {
	return br.reader.Read(p)
}

func (br *badgerReader) Close() error {
	br.txn.Discard()
	return nil
}

func (br *badgerReader) Size() int64 {
	return br.size
}
