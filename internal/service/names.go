package service

// 随机邮箱名由 形容词+名词+三位以内数字 拼接而成。

var nameAdjectives = []string{
	"cool", "super", "best", "fast", "blue", "red", "green", "gold",
	"silver", "iron", "happy", "smart", "swift", "wild", "calm", "brave",
	"neon", "cyber", "retro", "pro", "sky", "star", "moon", "sun",
	"cloud", "rain", "snow", "wind", "fire", "ice",
}

var nameNouns = []string{
	"panda", "tiger", "lion", "eagle", "wolf", "bear", "fox", "hawk",
	"owl", "cat", "dog", "bird", "fish", "shark", "whale", "duck",
	"goose", "swan", "deer", "elk", "coder", "dev", "user", "guest",
	"admin", "tester", "runner", "player", "winner", "hero", "smith",
	"jones", "bond", "doe", "black", "white", "brown", "scott", "king",
}
