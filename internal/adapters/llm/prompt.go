package llm

import (
	"google.golang.org/genai"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

// buildContents maps history, current input and earlier tool rounds to genai contents.
func buildContents(req domain.GenerationRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1+2*len(req.ToolResults))

	for _, turn := range req.History {
		role := genai.Role(genai.RoleUser)
		if turn.Role == domain.ChatRoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}

	if req.Input != "" {
		contents = append(contents, genai.NewContentFromText(req.Input, genai.RoleUser))
	}

	for _, r := range req.ToolResults {
		call := &genai.Part{FunctionCall: &genai.FunctionCall{
			ID:   r.Call.ID,
			Name: r.Call.Name,
			Args: r.Call.Args,
		}}
		resp := &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       r.Call.ID,
			Name:     r.Call.Name,
			Response: map[string]any{"output": r.Output},
		}}
		contents = append(contents,
			genai.NewContentFromParts([]*genai.Part{call}, genai.RoleModel),
			genai.NewContentFromParts([]*genai.Part{resp}, genai.RoleUser),
		)
	}

	// Gemini rejects an empty conversation
	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText("Hola", genai.RoleUser))
	}
	return contents
}

func toFunctionDeclarations(specs []domain.ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, s := range specs {
		params := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(s.Params)),
		}
		for _, p := range s.Params {
			params.Properties[p.Name] = &genai.Schema{Type: genai.TypeString, Description: p.Description}
			if p.Required {
				params.Required = append(params.Required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  params,
		})
	}
	return decls
}
