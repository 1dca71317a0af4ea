package oplog

// fieldLabels maps raw snapshot field keys to display labels, per module.
// Lookups fall back to the channel table and then to the raw key, so the
// resolver stays total even for fields added server-side later.
var fieldLabels = map[Module]map[string]string{
	ModuleChannel: {
		"id":                   "ID",
		"name":                 "名称",
		"type":                 "类型",
		"base_url":             "代理地址",
		"other":                "其他参数",
		"models":               "模型",
		"model_mapping":        "模型映射",
		"status":               "状态",
		"group":                "分组",
		"groups":               "分组",
		"weight":               "权重",
		"priority":             "优先级",
		"tag":                  "标签",
		"setting":              "设置",
		"test_model":           "测速模型",
		"tested_time":          "测速时间",
		"response_time":        "响应时间",
		"used_quota":           "已用额度",
		"balance":              "余额",
		"balance_updated_time": "余额更新时间",
		"auto_ban":             "自动禁用",
		"status_code_mapping":  "状态码映射",
		"headers":              "请求头",
		"used_count":           "使用次数",
		"max_rpm":              "RPM限制",
		"auto_enable":          "自动启用",
	},
	ModuleOption: {
		"RetryTimes":                     "重试次数",
		"RetryInterval":                  "重试间隔",
		"GlobalApiRateLimitNum":          "全局API速率限制",
		"ChannelDisableThreshold":        "渠道禁用阈值",
		"QuotaPerUnit":                   "单位额度",
		"DisplayInCurrencyEnabled":       "显示货币",
		"AutomaticDisableChannelEnabled": "自动禁用渠道",
		"AutomaticEnableChannelEnabled":  "自动启用渠道",
		"LogConsumeEnabled":              "记录消费日志",
		"QuotaRemindThreshold":           "额度提醒阈值",
		"PreConsumedQuota":               "预消费额度",
		"GroupRatio":                     "分组倍率",
		"GroupOrder":                     "分组顺序",
		"CompletionRatio":                "补全倍率",
		"ModelRatio":                     "模型倍率",
		"ModelPrice":                     "模型价格",
		"CacheRatio":                     "缓存倍率",
		"TopUpLink":                      "充值链接",
		"ChatLink":                       "聊天链接",
		"SystemName":                     "系统名称",
		"Footer":                         "页脚",
		"About":                          "关于",
		"HomePageContent":                "首页内容",
		"ServerAddress":                  "服务器地址",
		"PasswordLoginEnabled":           "密码登录",
		"PasswordRegisterEnabled":        "密码注册",
		"EmailVerificationEnabled":       "邮箱验证",
		"RegisterEnabled":                "允许注册",
		"EmailDomainRestrictionEnabled":  "邮箱域名限制",
		"EmailDomainWhitelist":           "邮箱域名白名单",
		"SMTPServer":                     "SMTP服务器",
		"SMTPPort":                       "SMTP端口",
		"SMTPAccount":                    "SMTP账号",
		"SMTPToken":                      "SMTP密码",
		"SMTPFrom":                       "发件人地址",
		"QuotaForNewUser":                "新用户额度",
		"QuotaForInviter":                "邀请人额度",
		"QuotaForInvitee":                "被邀请人额度",
		"TopupGroupRatio":                "充值分组倍率",
		"USDExchangeRate":                "美元汇率",
		"MinTopUp":                       "最低充值",
		"Notice":                         "公告",
		"ModelRequestRateLimitEnabled":   "模型请求限制",
		"ModelRequestRateLimitCount":     "模型请求限制次数",
		"AutoGroups":                     "自动分组",
		"DefaultUseAutoGroup":            "默认自动分组",
		"UserUsableGroups":               "用户可用分组",
		"AutomaticDisableKeywords":       "自动禁用关键词",
		"AutomaticDisableStatusCodes":    "自动禁用状态码",
		"ExposeRatioEnabled":             "公开倍率",
		"SpecialModelPrice":              "特殊模型价格",
		"TextModelPrice":                 "文本模型价格",
		"ChannelAutoEnableSetting":       "渠道自动启用设置",
		"ChannelPriorityMonitorSetting":  "渠道优先级监控设置",
		"ChannelStatsSetting":            "渠道统计设置",
	},
	ModuleUser: {
		"id":            "ID",
		"username":      "用户名",
		"display_name":  "显示名称",
		"role":          "角色",
		"status":        "状态",
		"email":         "邮箱",
		"group":         "分组",
		"quota":         "额度",
		"used_quota":    "已用额度",
		"request_count": "请求次数",
		"remark":        "备注",
		"inviter_id":    "邀请人ID",
	},
	ModuleToken: {
		"id":                   "ID",
		"name":                 "名称",
		"user_id":              "用户ID",
		"status":               "状态",
		"expired_time":         "过期时间",
		"remain_quota":         "剩余额度",
		"unlimited_quota":      "无限额度",
		"model_limits_enabled": "模型限制",
		"group":                "分组",
		"models":               "可用模型",
	},
	ModuleRedemption: {
		"id":            "ID",
		"name":          "名称",
		"status":        "状态",
		"quota":         "额度",
		"count":         "数量",
		"created_time":  "创建时间",
		"expired_time":  "过期时间",
		"redeemed_time": "兑换时间",
		"user_id":       "创建者ID",
		"keys":          "兑换码",
	},
	ModuleModel: {
		"id":       "ID",
		"name":     "名称",
		"owned_by": "提供商",
	},
}

// Label resolves a field key to its display label. Unknown fields fall back
// to the channel table, then to the key itself.
func Label(module Module, field string) string {
	if table, ok := fieldLabels[module]; ok {
		if label, ok := table[field]; ok {
			return label
		}
	}
	if label, ok := fieldLabels[ModuleChannel][field]; ok {
		return label
	}
	return field
}
