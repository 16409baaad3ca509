package assistant

import (
	"strings"

	"market-assist-be/internal/entity"
	"market-assist-be/pkg/llm"
)

// historyTurns bounds how many past turns are replayed to the model.
const historyTurns = 10

// knowledgeSnippets are short marketplace facts attached to the system prompt
// when the intent has a matching entry.
var knowledgeSnippets = map[IntentTag]string{
	IntentProvider: "Prestadores se cadastram em \"Seja um Profissional\", enviam documentos e " +
		"recebem pagamentos semanalmente via conta bancária cadastrada.",
	IntentService: "Clientes pedem orçamentos gratuitos; o prazo médio de resposta dos " +
		"profissionais é de 2 horas.",
	IntentComplaint: "Reclamações formais são abertas em \"Minha Conta > Ajuda\" e respondidas " +
		"em até 48 horas úteis.",
}

// PromptBuilder assembles the role-tagged message list sent to the generation
// service.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build produces: system prompt (category, current page, optional knowledge
// snippet), the last N history turns, then the new user message.
func (b *PromptBuilder) Build(session *entity.ChatSession, intent IntentTag, text string, history []*entity.ChatMessage) []llm.Message {
	messages := []llm.Message{
		{Role: "system", Content: b.systemPrompt(session, intent)},
	}

	turns := history
	if len(turns) > historyTurns {
		turns = turns[len(turns)-historyTurns:]
	}
	for _, msg := range turns {
		role := "user"
		if msg.Sender == entity.SenderAssistant {
			role = "assistant"
		} else if msg.Sender == entity.SenderSystem {
			continue
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Content})
	}

	messages = append(messages, llm.Message{Role: "user", Content: text})
	return messages
}

func (b *PromptBuilder) systemPrompt(session *entity.ChatSession, intent IntentTag) string {
	var sb strings.Builder

	sb.WriteString("Você é o assistente virtual de um marketplace de serviços brasileiro. ")
	sb.WriteString("Responda em português, de forma curta, cordial e objetiva.\n")

	switch session.Category() {
	case "prestador":
		sb.WriteString("O usuário é um prestador de serviços cadastrado na plataforma.\n")
	default:
		sb.WriteString("O usuário é um cliente procurando serviços.\n")
	}

	if page := session.CurrentPage(); page != "" {
		sb.WriteString("O usuário está na página: ")
		sb.WriteString(page)
		sb.WriteString("\n")
	}

	if snippet, ok := knowledgeSnippets[intent]; ok {
		sb.WriteString("Informação útil: ")
		sb.WriteString(snippet)
		sb.WriteString("\n")
	}

	sb.WriteString("Se não souber a resposta, diga isso e sugira o suporte humano.")
	return sb.String()
}
