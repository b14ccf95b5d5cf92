package out

import (
	"context"
	"encoding/json"
	"fmt"

	"pomotrack/internal/modules/timer/domain"
	timerout "pomotrack/internal/modules/timer/port/out"
	"pomotrack/internal/platform/kv"
)

const stateKey = "timer"

type KVStateStore struct {
	store kv.Store
}

func NewKVStateStore(store kv.Store) timerout.StateStore {
	return &KVStateStore{store: store}
}

func (s *KVStateStore) Load(ctx context.Context) (domain.State, bool, error) {
	payload, ok, err := s.store.Load(ctx, stateKey)
	if err != nil || !ok {
		return domain.State{}, false, err
	}
	state := domain.State{}
	if err := json.Unmarshal(payload, &state); err != nil {
		return domain.State{}, false, fmt.Errorf("decode timer state: %w", err)
	}
	return state, true, nil
}

func (s *KVStateStore) Save(ctx context.Context, state domain.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode timer state: %w", err)
	}
	return s.store.Save(ctx, stateKey, payload)
}
