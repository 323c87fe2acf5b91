package dispatch

// Тексты ответов пользователю.
const (
	textHelp = `📖 功能列表

🤖 【AI对话】直接发送任意消息即可与AI聊天
1️⃣ 发送「签到」- 每日签到领积分
2️⃣ 发送「积分」- 查看我的积分
3️⃣ 发送「排行榜」- 积分排行榜
4️⃣ 发送「设置昵称」- 设置个性化昵称
5️⃣ 发送「天气」- 查看今日天气
6️⃣ 发送「菜谱」- 菜谱功能菜单
7️⃣ 发送「随机菜谱」- 今天吃什么
8️⃣ 发送「验证」- 身份验证成为VIP
9️⃣ 发送「我的VIP」- 查看VIP信息

💡 发送「新对话」可重置AI对话
💡 VIP用户签到积分翻倍！
💡 发送「天气 城市名」可查询指定城市`

	textWelcome = `🎉 欢迎关注源源和娇娇的家！

感谢您的关注，这里是源源和娇娇分享生活点滴的温馨小窝~

🏠 在这里您可以：
• 了解我们的日常生活
• 分享有趣的话题
• 获取最新的动态更新

💬 您可以随时发送消息与我们互动，我们会尽快回复！

🔐 发送暗号可以解锁VIP身份哦~

回复"帮助"查看更多功能介绍`

	textImageReceived = "收到您的图片了！感谢分享！"
	textNewChat       = "🆕 已开启新对话，之前的聊天记录已清空~"
	textTryLater      = "😢 系统繁忙，请稍后再试~"

	textVerifyPrompt = `🔐 身份验证

请在5分钟内输入暗号完成验证~

💡 提示：暗号是我们的专属口令哦！

⏰ 验证将在5分钟后自动取消`

	textVerifyWrong = `❌ 暗号错误

您输入的暗号不正确，请重新输入~

💡 如果不知道暗号，可以联系我们获取哦！

⏰ 您还可以继续尝试`

	textVerifyExpired = `⏰ 验证已过期

您的验证会话已超时，请重新发送「验证」开始验证~`

	textVerifyUnavailable = `🔐 验证暂未开放

请联系管理员获取帮助~`

	textVerifyCancelled = `❌ 已取消验证

发送「验证」可以重新开始身份验证~`

	textVIPWelcome = `🎊 恭喜！身份验证成功！

欢迎成为我们的VIP用户！
您的专属ID: %s
验证时间: %s

🌟 作为VIP用户，您将享有：
• 专属功能和服务
• 优先消息回复
• 更多精彩内容

感谢您的支持！💕`

	textAlreadyVIP = `😊 您已经是VIP用户啦！

您的专属ID: %s
验证时间: %s

无需重复验证哦~`

	textVIPInfo = `🌟 您的VIP信息

专属ID: %s
验证时间: %s
状态: %s

感谢您的支持！💕`

	textNotVIP = `😢 您还不是VIP用户

发送「验证」开始身份验证，输入暗号即可成为VIP！

成为VIP后可享受专属功能和服务哦~`

	textRecipeMenu = `🍳 菜谱功能

1️⃣ 发送「查看菜谱」- 查看菜谱列表
2️⃣ 发送「记录菜谱」- 记录新菜谱（VIP专属）
3️⃣ 发送「随机菜谱」- 随便吃点啥

💡 发送「帮助」返回上级菜单`

	textRecipeInputPrompt = `📝 记录菜谱

请发送菜谱内容~
可以简单发个菜名，也可以详细写：
菜名/用料/做法

发送「取消」退出记录模式`

	textRecipeCancelled = `❌ 已取消记录菜谱

发送「菜谱」返回菜谱功能菜单`

	textRecipeVIPOnly = `😢 记录菜谱是VIP专属功能哦~

发送「验证」进行身份验证，成为VIP后即可使用！`

	textRecipeCategoryPrompt = `📝 已收到菜谱：%s

请选择菜谱分类：
1️⃣ 荤菜 - 回复「荤」或「1」
2️⃣ 素菜 - 回复「素」或「2」

发送「取消」退出记录`

	textRecipeCategoryInvalid = `❌ 分类无效

请回复：
1️⃣ 荤菜 - 回复「荤」或「1」
2️⃣ 素菜 - 回复「素」或「2」

发送「取消」退出记录`

	textRecipeAdded = `✅ 菜谱记录成功！

📝 %s
📂 分类：%s

已记录到菜谱列表~`

	textRecipeAddFailed = "❌ 菜谱记录失败，请稍后重试~"

	textRecipeListEmpty = `📖 菜谱列表

暂时还没有菜谱哦~

VIP用户可以发送「记录菜谱」来添加第一个菜谱！`

	textRecipeListHeader = "📖 菜谱列表"
	textRecipeListFooter = "共 %d 个菜谱\n发送「菜谱 序号」查看详情"
	textCategoryEmpty    = "（暂无）"

	textRecipeDetail = `🍳 %s

%s

📅 记录时间：%s
👤 记录者：%s`

	textRecipeIndexInvalid = `❌ 菜谱序号无效

请发送「查看菜谱」查看菜谱列表，确认正确的序号~`

	textRandomPair = `🎲 今天就吃这个！

%s

%s

不满意？再发「随机菜谱」换一组~`

	textRandomMeat          = "🥩 荤菜：%s\n%s"
	textRandomVeg           = "🥬 素菜：%s\n%s"
	textRandomCategoryEmpty = "（暂无%s菜谱）"
	textRandomEmpty         = `🎲 随机菜谱

暂时还没有菜谱哦~
VIP用户可以发送「记录菜谱」来添加菜谱！`

	textWeatherFirstUse = `🌤️ 天气查询

您还没有设置常用城市~

请发送您的城市名称（如：北京、上海）
或发送您的位置，我将自动记录并查询天气。

发送「取消」退出设置`

	textWeatherCitySet = `✅ 已记住您的城市：%s

下次发送「天气」将直接查询该城市天气~
发送「更换城市」可以修改哦~`

	textWeatherChangeCity = `🏙️ 更换天气城市

当前城市：%s

请发送新的城市名称或发送您的位置~

发送「取消」保持当前设置`

	textWeatherCityCancelled = `❌ 已取消

发送「天气」继续查询天气~`

	textWeatherCityInvalid  = "❌ 城市名称无效，请重新发送城市名称，或发送「取消」退出设置"
	textLocationCityUnknown = "\n\n💡 未能识别您所在的城市，请直接发送城市名称~"

	textPushVIPOnly = `😢 天气推送是VIP专属功能哦~

发送「验证」进行身份验证，成为VIP后即可使用！`

	textPushAlreadySubscribed = `📢 您已订阅天气推送

📍 推送城市：%s

每日首次互动时将为您播报天气~

发送「取消订阅天气」可关闭推送`

	textPushNoCity = `⚠️ 请先设置您的城市

发送「天气」设置常用城市后，再来订阅天气推送~`

	textPushSubscribed = `✅ 天气推送订阅成功！

📍 推送城市：%s

每日首次互动时将为您播报天气~

发送「取消订阅天气」可随时关闭`

	textPushNotSubscribed = `您还没有订阅天气推送~

发送「订阅天气」开启每日天气提醒`

	textPushUnsubscribed = `✅ 已取消天气推送

发送「订阅天气」可重新开启~`

	textPushStatus = `🌤️ 天气推送状态

📊 订阅状态：%s
📍 推送城市：%s

💡 %s`

	textNicknamePrompt = `✏️ 设置昵称

当前昵称：%s

请发送您想要的昵称（%d-%d个字符）

💡 昵称将在签到、排行榜等功能中显示

发送「取消」退出设置`

	textNicknameSet = `✅ 昵称设置成功！

您的昵称已更新为：%s

💡 发送「设置昵称」可随时修改`

	textNicknameInvalid = `❌ 昵称格式无效

昵称要求：
• 长度 %d-%d 个字符
• 不能包含特殊符号

请重新输入昵称，或发送「取消」退出`

	textNicknameCancelled = `❌ 已取消设置昵称

发送「设置昵称」可重新设置`

	textNicknameInfo = `📛 我的昵称

当前昵称：%s

💡 发送「设置昵称」可修改昵称`
)
