package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/ludo-game/api"
	"github.com/wricardo/ludo-game/game/board"
	"github.com/wricardo/ludo-game/game/config"
	"github.com/wricardo/ludo-game/game/engine"
	"github.com/wricardo/ludo-game/game/service"
	"github.com/wricardo/ludo-game/game/session"
)

func TestNewStrategy(t *testing.T) {
	for _, name := range []string{"random", "first"} {
		s, err := NewStrategy(name, 3)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}
	_, err := NewStrategy("clever", 0)
	assert.Error(t, err)

	options := []service.PieceOption{{Piece: 1}, {Piece: 3}}
	random, _ := NewStrategy("random", 3)
	for range 20 {
		assert.Contains(t, []int{1, 3}, random.Choose(board.P1, options))
	}
	assert.Equal(t, 1, FirstStrategy{}.Choose(board.P1, options))
}

func newTestServer(t *testing.T, seed uint64) *httptest.Server {
	t.Helper()
	configs, err := config.NewManager("../../configs")
	require.NoError(t, err)
	sessions := session.NewManager(session.WithEngineOptions(
		engine.WithStepDelay(0),
		engine.WithDice(engine.NewRandomDice(seed)),
	))
	srv := httptest.NewServer(api.NewServer(service.NewGameService(sessions, configs), nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestPlay(t *testing.T) {
	for _, name := range []string{"first", "random"} {
		t.Run(name, func(t *testing.T) {
			srv := newTestServer(t, 11)
			client := NewClient(srv.URL + "/")
			ctx := context.Background()

			state, err := client.CreateSession(ctx, "duel")
			require.NoError(t, err)
			assert.Equal(t, engine.AwaitingRoll, state.Phase)

			strategy, err := NewStrategy(name, 5)
			require.NoError(t, err)
			report, err := Play(ctx, client, strategy, PlayOptions{MaxRequests: 50000})
			require.NoError(t, err)

			require.NotNil(t, report.Winner)
			assert.Contains(t, []board.Seat{board.P1, board.P2}, report.Winner.Seat)
			assert.Zero(t, report.Ignored)
			assert.GreaterOrEqual(t, report.Moves, 2*board.PiecesPerSeat)

			final, err := client.GetState(ctx)
			require.NoError(t, err)
			assert.Equal(t, engine.GameOver, final.Phase)
			assert.Equal(t, report.Moves+report.Passes, final.CurrentMovesCount)
		})
	}
}

func TestPlay_RequestBudget(t *testing.T) {
	srv := newTestServer(t, 11)
	client := NewClient(srv.URL)
	ctx := context.Background()
	_, err := client.CreateSession(ctx, "classic")
	require.NoError(t, err)

	report, err := Play(ctx, client, FirstStrategy{}, PlayOptions{MaxRequests: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, report.Requests)
	assert.Nil(t, report.Winner)
}

func TestClient_Errors(t *testing.T) {
	srv := newTestServer(t, 1)
	client := NewClient(srv.URL)
	client.Use("nope")

	_, err := client.GetState(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = client.CreateSession(context.Background(), "missing")
	assert.Error(t, err)
}
