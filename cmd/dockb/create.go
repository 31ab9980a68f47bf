package main

import (
	"fmt"

	"github.com/fwojciec/dockb"
)

// Run executes the create command.
func (c *CreateCmd) Run(deps *Dependencies) error {
	kb := &dockb.KnowledgeBase{
		Name: c.Name,
		Config: dockb.KnowledgeBaseConfig{
			Description:         c.Description,
			SourceURL:           c.SourceURL,
			EmbeddingsEnabled:   !c.NoEmbeddings,
			SimilarityThreshold: c.Threshold,
			ScopePrefix:         c.Scope,
		},
	}

	created, err := deps.Service.CreateKnowledgeBase(deps.Ctx, kb)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dockb.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Created knowledge base %q\n", created.Name)
	return nil
}
