package extract

import (
	"fmt"
	"strings"
)

// Prompts instruct the model to answer with nothing but a fixed JSON
// shape so the reply can be parsed per mode. Target language for
// meanings and translations is Chinese, matching the study material
// the service produces.

const wordShape = `{"word": "單詞", "phonetic": "/IPA音標/", "meaning": "中文意思", "example": "英文例句"}`

const sentenceShape = `{"sentence": "完整句子", "meaning": "中文翻譯"}`

// directPrompt asks the model to discover and annotate items from raw text
func directPrompt(text string, mode Mode) string {
	switch mode {
	case ModeWords:
		return fmt.Sprintf(`從以下英文文字中提取最重要的%d個單詞（按重要性排序），返回 JSON 陣列：

[
    %s
]

只返回 JSON，不要其他文字。

文字內容：
%s`, MaxItems, wordShape, text)

	case ModeSentences:
		return fmt.Sprintf(`從以下英文文字中提取最重要的%d個完整句子（按重要性排序），返回 JSON 陣列：

[
    %s
]

只返回 JSON，不要其他文字。

文字內容：
%s`, MaxItems, sentenceShape, text)

	default:
		return fmt.Sprintf(`從以下英文文字中提取最重要的%d個單詞和%d個完整句子（按重要性排序），返回 JSON 格式：

{
    "words": [%s],
    "sentences": [%s]
}

只返回 JSON，不要其他文字。

文字內容：
%s`, MaxItems, MaxItems, wordShape, sentenceShape, text)
	}
}

// guidedPrompt hands the model pre-filtered candidates and asks it only
// to select and annotate, not to discover.
func guidedPrompt(words, sentences []string, mode Mode) string {
	var b strings.Builder

	switch mode {
	case ModeWords:
		fmt.Fprintf(&b, `以下是預先篩選的候選單詞。請挑選其中最重要的（最多%d個，按重要性排序），為每個單詞標註 IPA 音標、中文意思和英文例句，返回 JSON 陣列：

[
    %s
]

只返回 JSON，不要其他文字。
`, MaxItems, wordShape)
	case ModeSentences:
		fmt.Fprintf(&b, `以下是預先篩選的候選句子。請挑選其中最重要的（最多%d個，按重要性排序），為每個句子標註中文翻譯，返回 JSON 陣列：

[
    %s
]

只返回 JSON，不要其他文字。
`, MaxItems, sentenceShape)
	default:
		fmt.Fprintf(&b, `以下是預先篩選的候選單詞和句子。請挑選其中最重要的（各最多%d個，按重要性排序），為每個單詞標註 IPA 音標、中文意思和英文例句，為每個句子標註中文翻譯，返回 JSON 格式：

{
    "words": [%s],
    "sentences": [%s]
}

只返回 JSON，不要其他文字。
`, MaxItems, wordShape, sentenceShape)
	}

	if mode.WantsWords() {
		b.WriteString("\n候選單詞：\n")
		b.WriteString(strings.Join(words, ", "))
		b.WriteString("\n")
	}
	if mode.WantsSentences() {
		b.WriteString("\n候選句子：\n")
		for _, s := range sentences {
			b.WriteString("- ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}

	return b.String()
}
