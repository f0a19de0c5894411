package persona_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/malvinraqin/portfolio/pkg/llm"
	"github.com/malvinraqin/portfolio/pkg/persona"
)

var _ = Describe("Persona", func() {
	turns := []llm.Message{
		{Role: llm.RoleUser, Content: "Halo"},
		{Role: llm.RoleAssistant, Content: "Hai!"},
		{Role: llm.RoleUser, Content: "Apa skill Malvin?"},
	}

	Describe("Prepend", func() {
		It("places exactly one system turn ahead of the caller turns", func() {
			out := persona.Prepend(turns)

			Expect(out).To(HaveLen(len(turns) + 1))
			Expect(out[0]).To(Equal(llm.Message{Role: llm.RoleSystem, Content: persona.SystemPrompt}))
			Expect(out[1:]).To(Equal(turns))
		})

		It("returns only the system turn for an empty conversation", func() {
			Expect(persona.Prepend(nil)).To(HaveLen(1))
		})

		It("does not alias the caller's slice", func() {
			in := make([]llm.Message, 1, 8)
			in[0] = turns[0]

			out := persona.Prepend(in)
			out[1].Content = "changed"

			Expect(in[0].Content).To(Equal("Halo"))
		})
	})

	Describe("Request", func() {
		It("uses the default model when none is given", func() {
			Expect(persona.Request("", turns).Model).To(Equal(persona.Model))
			Expect(persona.Request("gemini-2.5-pro", turns).Model).To(Equal("gemini-2.5-pro"))
		})

		It("carries the fixed sampling parameters", func() {
			opts := persona.Request("", turns).Options

			Expect(*opts.Temperature).To(Equal(0.7))
			Expect(*opts.TopP).To(Equal(0.9))
			Expect(*opts.MaxTokens).To(Equal(1000))
		})

		It("hands out independent option values", func() {
			a := persona.Options()
			*a.Temperature = 2

			Expect(*persona.Options().Temperature).To(Equal(0.7))
		})
	})

	It("keeps the plain-text formatting rule in the prompt", func() {
		Expect(persona.SystemPrompt).To(ContainSubstring("JANGAN gunakan format Markdown"))
	})
})
