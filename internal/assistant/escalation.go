package assistant

import (
	"strings"
	"unicode"

	"market-assist-be/internal/entity"
)

// escalationRule is one category of frustration signals. Ordered, first hit
// short-circuits.
type escalationRule struct {
	category string
	phrases  []string
}

var defaultEscalationRules = []escalationRule{
	{category: "frustration", phrases: []string{
		"frustrad", "irritad", "cansado disso", "cansada disso", "que raiva", "absurdo",
	}},
	{category: "negative_outcome", phrases: []string{
		"não resolveu", "nao resolveu", "não adiantou", "nao adiantou", "piorou", "continua errado",
	}},
	{category: "complaint", phrases: []string{
		"péssimo", "pessimo", "horrível", "horrivel", "ridículo", "ridiculo", "vergonha", "lixo",
	}},
	{category: "giving_up", phrases: []string{
		"desisto", "desista", "deixa pra lá", "deixa pra la", "não quero mais", "nao quero mais", "esquece",
	}},
	{category: "human_request", phrases: []string{
		"falar com um humano", "falar com humano", "falar com atendente", "atendente",
		"pessoa de verdade", "suporte humano", "quero um humano",
	}},
	{category: "confusion", phrases: []string{
		"não entendi nada", "nao entendi nada", "não faz sentido", "nao faz sentido",
		"você não entende", "voce nao entende", "não é isso", "nao é isso", "nao e isso",
	}},
	{category: "repetition", phrases: []string{
		"já falei", "ja falei", "já disse", "ja disse", "de novo isso", "quantas vezes",
	}},
	{category: "time_complaint", phrases: []string{
		"demora demais", "demorando muito", "muito tempo", "horas esperando", "ninguém responde", "ninguem responde",
	}},
	{category: "strong_emotion", phrases: []string{
		"ódio", "odio", "odeio", "inaceitável", "inaceitavel", "nunca mais",
	}},
}

// EscalationResponse is what the user sees when the conversation is handed to
// human support. Pure data, built with no external dependency so escalation
// still works when everything else is degraded.
type EscalationResponse struct {
	Message     string   `json:"message"`
	Actions     []string `json:"actions"`
	ContactInfo string   `json:"contact_info"`
}

// EscalationDetector classifies frustration from message text.
type EscalationDetector struct {
	rules []escalationRule
}

func NewEscalationDetector() *EscalationDetector {
	return &EscalationDetector{rules: defaultEscalationRules}
}

// Detect returns true when the text matches any rule category, contains a run
// of three or more '!' or '?', or shouts with five or more fully upper-case
// words longer than two characters.
func (d *EscalationDetector) Detect(text string) bool {
	lowered := strings.ToLower(text)
	for _, rule := range d.rules {
		for _, phrase := range rule.phrases {
			if strings.Contains(lowered, phrase) {
				return true
			}
		}
	}

	if hasPunctuationRun(text, 3) {
		return true
	}

	return countShoutedWords(text) >= 5
}

// Category names the first matching rule, or "" when only the heuristics fired.
func (d *EscalationDetector) Category(text string) string {
	lowered := strings.ToLower(text)
	for _, rule := range d.rules {
		for _, phrase := range rule.phrases {
			if strings.Contains(lowered, phrase) {
				return rule.category
			}
		}
	}
	return ""
}

// Escalate builds the human-support handoff response. Marking the analytics
// record escalated is the caller's job.
func (d *EscalationDetector) Escalate(session *entity.ChatSession, text string) *EscalationResponse {
	message := "Entendi que você precisa de um atendimento mais próximo. " +
		"Vou encaminhar sua conversa para nossa equipe de suporte, que vai te responder o quanto antes."
	if d.Category(text) == "human_request" {
		message = "Claro! Vou te conectar com um de nossos atendentes. " +
			"Enquanto isso, você também pode usar os canais abaixo."
	}

	return &EscalationResponse{
		Message: message,
		Actions: []string{
			"abrir_chamado_suporte",
			"continuar_conversa_assistente",
		},
		ContactInfo: "suporte@marketassist.com.br | WhatsApp (11) 4000-1234, seg a sáb, 8h às 20h",
	}
}

func hasPunctuationRun(text string, minRun int) bool {
	run := 0
	for _, r := range text {
		if r == '!' || r == '?' {
			run++
			if run >= minRun {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

func countShoutedWords(text string) int {
	count := 0
	for _, word := range strings.Fields(text) {
		letters := 0
		upper := true
		for _, r := range word {
			if unicode.IsLetter(r) {
				letters++
				if !unicode.IsUpper(r) {
					upper = false
					break
				}
			}
		}
		if upper && letters > 2 {
			count++
		}
	}
	return count
}
