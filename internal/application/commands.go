package application

import "github.com/bnema/tsdm-autosign/internal/domain"

type ImportCredentialsCommand struct {
	ID          domain.AccountID
	Credentials domain.Credentials
}

type SubmitTaskCommand struct {
	Kind    domain.TaskKind
	Account domain.AccountID
}

func (c SubmitTaskCommand) Task() domain.Task {
	return domain.Task{Kind: c.Kind, Account: c.Account}
}
