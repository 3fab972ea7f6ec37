package domain

import (
	"fmt"
	"strings"
)

type TaskKind string

const (
	TaskSign TaskKind = "sign"
	TaskWork TaskKind = "work"
)

func ParseTaskKind(raw string) (TaskKind, error) {
	switch TaskKind(strings.ToLower(strings.TrimSpace(raw))) {
	case TaskSign:
		return TaskSign, nil
	case TaskWork:
		return TaskWork, nil
	default:
		return "", fmt.Errorf("unknown task kind %q", raw)
	}
}

// Task is compared by value; two tasks with the same kind and account are the same task.
type Task struct {
	Kind    TaskKind
	Account AccountID
}

func (t Task) String() string {
	return string(t.Kind) + ":" + string(t.Account)
}
