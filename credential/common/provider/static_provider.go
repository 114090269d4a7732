package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/model"
)

// StaticProvider serves DID Documents from memory. It is safe for
// concurrent use.
type StaticProvider struct {
	mu   sync.RWMutex
	docs map[string]*model.DIDDocument
}

// NewStaticProvider returns a provider holding docs, keyed by their id.
func NewStaticProvider(docs ...*model.DIDDocument) *StaticProvider {
	p := &StaticProvider{docs: make(map[string]*model.DIDDocument, len(docs))}
	for _, d := range docs {
		p.Put(d)
	}
	return p
}

// Put adds or replaces a document.
func (p *StaticProvider) Put(doc *model.DIDDocument) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[doc.ID] = doc
}

func (p *StaticProvider) DIDResolver(_ context.Context, did string) (*model.DIDDocument, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	doc, ok := p.docs[did]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDIDNotFound, did)
	}
	return doc, nil
}
