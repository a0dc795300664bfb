package events

// ExtractionTopic carries models.ExtractionEvent from page realms to the relay bridge.
var ExtractionTopic = "JobInsightsExtraction"
