package assistant

import (
	"testing"

	"market-assist-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	d := NewEscalationDetector()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "giving up", text: "desisto", want: true},
		{name: "giving up in sentence", text: "Sabe de uma coisa? Desisto.", want: true},
		{name: "human request", text: "Quero falar com um humano", want: true},
		{name: "attendant request", text: "me passa pro atendente por favor", want: true},
		{name: "frustration", text: "estou muito frustrada com isso", want: true},
		{name: "negative outcome", text: "não resolveu meu problema", want: true},
		{name: "exclamation run", text: "CADE MEU PEDIDO!!!", want: true},
		{name: "question run", text: "onde está???", want: true},
		{name: "two marks are fine", text: "onde está??", want: false},
		{name: "five shouted words", text: "EU QUERO MEU DINHEIRO AGORA MESMO", want: true},
		{name: "short caps words ignored", text: "EU JA TE VI AQUI", want: false},
		{name: "greeting", text: "Olá, tudo bem?", want: false},
		{name: "plain question", text: "Quanto custa uma faxina completa?", want: false},
		{name: "empty", text: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Detect(tt.text); got != tt.want {
				t.Errorf("Detect(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestCategory(t *testing.T) {
	d := NewEscalationDetector()

	tests := []struct {
		text string
		want string
	}{
		{"desisto de uma vez", "giving_up"},
		{"quero falar com atendente", "human_request"},
		{"já falei isso três vezes", "repetition"},
		{"SOCORRO ME AJUDEM AGORA POR FAVOR GENTE", ""}, // heuristic only, no category
	}

	for _, tt := range tests {
		if got := d.Category(tt.text); got != tt.want {
			t.Errorf("Category(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestEscalate(t *testing.T) {
	d := NewEscalationDetector()
	session := &entity.ChatSession{Owner: entity.NewAnonymousOwner("anon-1")}

	res := d.Escalate(session, "não resolveu nada disso")

	assert.NotEmpty(t, res.Message)
	assert.Equal(t, []string{"abrir_chamado_suporte", "continuar_conversa_assistente"}, res.Actions)
	assert.Contains(t, res.ContactInfo, "suporte@marketassist.com.br")

	// A direct human request gets the connecting wording instead of the
	// generic handoff.
	human := d.Escalate(session, "quero falar com atendente")
	assert.NotEqual(t, res.Message, human.Message)
	assert.Contains(t, human.Message, "atendentes")
}
