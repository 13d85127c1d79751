package chat

import (
	"context"

	"ragchat/internal/chain"
)

type ChatUsecase interface {
	Ask(ctx context.Context, question string) (*chain.Result, error)
}
