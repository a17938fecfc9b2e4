package llm

import "fmt"

const defaultTopic = "民生用品的價格變化"

// Prompts holds the fixed system instructions sent with every call.
type Prompts struct {
	Classify  string
	Summarize string
	Keywords  string
}

// NewPrompts renders the instructions for the given relevance topic.
func NewPrompts(topic string) Prompts {
	if topic == "" {
		topic = defaultTopic
	}
	return Prompts{
		Classify: fmt.Sprintf(
			"你是一個關聯度評估機器人，請評估新聞標題是否與「%s」相關，"+
				"並給予 'high'、'medium'、'low' 評價。(僅需回答 'high'、'medium'、'low' 三個詞之一)",
			topic,
		),
		Summarize: "你是一個新聞摘要生成機器人，請統整新聞中提及的影響及主要原因 " +
			"(影響、原因各50個字，請以json格式回答 {\"impact\": \"...\", \"reason\": \"...\"}，不要加入其他文字)",
		Keywords: "你是一個關鍵字提取機器人，用戶將會輸入一段文字，表示其希望看見的新聞內容，" +
			"請提取出用戶希望看見的關鍵字，請截取最重要的關鍵字即可，避免出現「新聞」、「資訊」等混淆搜尋引擎的字詞。" +
			"(僅須回答關鍵字，若有多個關鍵字，請以空格分隔)",
	}
}
