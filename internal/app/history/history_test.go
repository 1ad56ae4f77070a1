package history_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/PabloGalante/noto-agent/internal/app/history"
	"github.com/PabloGalante/noto-agent/internal/domain"
)

func msg(sender domain.Sender, text string) *domain.Message {
	return &domain.Message{Sender: sender, Text: text}
}

func TestFormat(t *testing.T) {
	msgs := []*domain.Message{
		msg(domain.SenderUser, "hola"),
		msg(domain.SenderBot, "¡Hola! ¿Cómo estás?"),
		msg(domain.SenderUser, "gasté 2999 pesos en una papa"),
	}

	tests := []struct {
		name  string
		input string
		want  []domain.ChatTurn
	}{
		{
			name:  "drops trailing user turn sent as current input",
			input: "gasté 2999 pesos en una papa",
			want: []domain.ChatTurn{
				{Role: domain.ChatRoleUser, Content: "hola"},
				{Role: domain.ChatRoleModel, Content: "¡Hola! ¿Cómo estás?"},
			},
		},
		{
			name:  "keeps everything without current input",
			input: "",
			want: []domain.ChatTurn{
				{Role: domain.ChatRoleUser, Content: "hola"},
				{Role: domain.ChatRoleModel, Content: "¡Hola! ¿Cómo estás?"},
				{Role: domain.ChatRoleUser, Content: "gasté 2999 pesos en una papa"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := history.Format(msgs, tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Format mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatBatchedInput(t *testing.T) {
	msgs := []*domain.Message{
		msg(domain.SenderBot, "¿Algo más?"),
		msg(domain.SenderUser, "gasté 300"),
		msg(domain.SenderUser, "en pan"),
	}

	got := history.Format(msgs, "gasté 300\nen pan")
	want := []domain.ChatTurn{{Role: domain.ChatRoleModel, Content: "¿Algo más?"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Format mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatKeepsTrailingBotTurn(t *testing.T) {
	msgs := []*domain.Message{
		msg(domain.SenderUser, "hola"),
		msg(domain.SenderBot, "hola!"),
	}
	if got := history.Format(msgs, "nuevo"); len(got) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(got))
	}
}

func TestLookbackStatement(t *testing.T) {
	turns := []domain.ChatTurn{
		{Role: domain.ChatRoleUser, Content: "gasté 2800 en una cerveza"},
		{Role: domain.ChatRoleModel, Content: "Entendido. ¿Quieres que guarde esta información?"},
	}
	if got := history.LookbackStatement(turns, domain.PendingAwaitingSaveConfirmation); got != "gasté 2800 en una cerveza" {
		t.Errorf("confirmation lookback = %q", got)
	}

	turns = append(turns,
		domain.ChatTurn{Role: domain.ChatRoleUser, Content: "sí"},
		domain.ChatTurn{Role: domain.ChatRoleModel, Content: "De acuerdo. Dame más contexto."},
	)
	if got := history.LookbackStatement(turns, domain.PendingAwaitingContext); got != "gasté 2800 en una cerveza" {
		t.Errorf("context lookback = %q", got)
	}

	if got := history.LookbackStatement(turns, domain.PendingNone); got != "" {
		t.Errorf("no pending should give empty, got %q", got)
	}
}

func TestLastModelTurn(t *testing.T) {
	turns := []domain.ChatTurn{
		{Role: domain.ChatRoleModel, Content: "primero"},
		{Role: domain.ChatRoleUser, Content: "x"},
	}
	if got := history.LastModelTurn(turns); got != "primero" {
		t.Errorf("LastModelTurn = %q", got)
	}
}
