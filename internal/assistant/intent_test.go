package assistant

import (
	"testing"
)

func TestClassify(t *testing.T) {
	c := NewIntentClassifier()

	tests := []struct {
		name string
		text string
		want IntentTag
	}{
		{
			name: "provider keyword",
			text: "Quero trabalhar como prestador na plataforma",
			want: IntentProvider,
		},
		{
			name: "complaint keyword",
			text: "O pagamento não funciona de jeito nenhum",
			want: IntentComplaint,
		},
		{
			name: "navigation help phrase",
			text: "Como faço para contratar uma diarista?",
			want: IntentNavHelp,
		},
		{
			name: "service keyword",
			text: "Preciso de um eletricista urgente",
			want: IntentService,
		},
		{
			name: "navigation keyword",
			text: "Não acho o menu de configurações",
			want: IntentNavigation,
		},
		{
			name: "no keyword falls back to general",
			text: "Olá, tudo bem?",
			want: IntentGeneral,
		},
		{
			name: "case insensitive",
			text: "PRECISO DE UM ORÇAMENTO",
			want: IntentService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			if got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

// Precedence lives in the rule ordering: a message matching both a provider
// and a service keyword must classify as provider, and a complaint beats a
// navigation word.
func TestClassifyPrecedence(t *testing.T) {
	c := NewIntentClassifier()

	tests := []struct {
		name string
		text string
		want IntentTag
	}{
		{
			name: "provider beats service",
			text: "Sou prestador e quero divulgar meu serviço",
			want: IntentProvider,
		},
		{
			name: "complaint beats service",
			text: "Tenho uma reclamação sobre o serviço de faxina",
			want: IntentComplaint,
		},
		{
			name: "navigation help beats navigation",
			text: "Como faço para voltar à página inicial?",
			want: IntentNavHelp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			if got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewIntentClassifier()
	text := "Quanto custa um frete para a página de pedidos?"

	first := c.Classify(text)
	for i := 0; i < 100; i++ {
		if got := c.Classify(text); got != first {
			t.Fatalf("run %d: Classify returned %q, previously %q", i, got, first)
		}
	}
}
