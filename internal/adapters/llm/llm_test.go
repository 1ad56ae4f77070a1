package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

func TestBuildContents(t *testing.T) {
	req := domain.GenerationRequest{
		History: []domain.ChatTurn{
			{Role: domain.ChatRoleUser, Content: "hola"},
			{Role: domain.ChatRoleModel, Content: "¡Hola!"},
		},
		Input: "¿cuánto gasté?",
		ToolResults: []domain.ToolResult{{
			Call:   domain.ToolCall{ID: "c1", Name: "search_notes", Args: map[string]any{"query": "gasté"}},
			Output: "Esto es lo que encontré:",
		}},
	}

	contents := buildContents(req)
	require.Len(t, contents, 5)
	assert.EqualValues(t, genai.RoleUser, contents[0].Role)
	assert.EqualValues(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, "¿cuánto gasté?", contents[2].Parts[0].Text)

	fc := contents[3].Parts[0].FunctionCall
	require.NotNil(t, fc)
	assert.Equal(t, "search_notes", fc.Name)
	assert.EqualValues(t, genai.RoleModel, contents[3].Role)

	fr := contents[4].Parts[0].FunctionResponse
	require.NotNil(t, fr)
	assert.Equal(t, "c1", fr.ID)
	assert.Equal(t, "Esto es lo que encontré:", fr.Response["output"])
}

func TestBuildContentsNeverEmpty(t *testing.T) {
	assert.Len(t, buildContents(domain.GenerationRequest{}), 1)
}

func TestToFunctionDeclarations(t *testing.T) {
	decls := toFunctionDeclarations([]domain.ToolSpec{{
		Name: "save_note",
		Params: []domain.ToolParam{
			{Name: "summary", Required: true},
			{Name: "category"},
		},
	}})
	require.Len(t, decls, 1)
	assert.Equal(t, genai.TypeObject, decls[0].Parameters.Type)
	assert.Equal(t, []string{"summary"}, decls[0].Parameters.Required)
	assert.Contains(t, decls[0].Parameters.Properties, "category")
}

func TestMockGenerator(t *testing.T) {
	m := NewMockGenerator()

	res, err := m.Generate(context.Background(), domain.GenerationRequest{Input: "hola"})
	require.NoError(t, err)
	assert.Equal(t, `Te escucho. Dijiste "hola".`, res.Text)

	res, err = m.Generate(context.Background(), domain.GenerationRequest{Input: "hola", JSONOutput: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"converse","chatbotResponse":"Te escucho. Dijiste \"hola\"."}`, res.Text)
}
