package rules

// Keyword dictionaries for the rule classifier. Matching is
// substring-anywhere, never token-bounded: the lists rely on
// multi-character containment in unsegmented Chinese text.

var complaintHighKeywords = []string{
	"投诉", "举报", "工信部", "消费者协会", "12315", "曝光", "315",
	"骗人", "骗子", "欺诈", "诈骗", "坑人", "骗钱", "黑心",
	"垃圾", "太差", "差劲", "恶心", "烂", "废物", "坑爹", "狗屎",
	"找领导", "找经理", "上级", "总部", "你们领导", "负责人",
	"起诉", "律师", "法律", "赔偿", "法院", "告你们",
	"记者", "新闻", "媒体",
}

var complaintMediumKeywords = []string{
	"不满意", "很差", "太差", "问题", "故障", "没解决", "解决不了",
	"太慢", "太贵", "乱收费", "多扣", "扣费", "多收", "收费不合理",
	"态度差", "服务差", "不专业", "敷衍", "推诿", "踢皮球",
	"催了好几次", "一直没", "拖", "多少次了", "等了很久", "说话不算",
	"失望", "无语", "受不了", "忍不了",
}

var churnHighKeywords = []string{
	"不用了", "取消", "退订", "销户", "注销", "不要了", "退了吧",
	"换运营商", "换电信", "换联通", "换移动", "携号转网", "转网",
	"换套餐", "降档", "降套餐", "最低套餐", "取消套餐",
	"不续费", "停机", "停用", "不交费", "欠费停机",
}

var churnMediumKeywords = []string{
	"考虑", "再说", "看看", "比较一下", "对比", "犹豫",
	"太贵", "划不来", "不值", "性价比", "便宜点",
	"很少用", "用不上", "没必要", "不常用", "用得少",
	"别家", "其他", "朋友用的", "隔壁", "竞争对手",
	"少打点", "少用", "降费",
}

// ASR survey tags mapped to satisfaction buckets. Compared bidirectionally:
// a label matches when the tag contains the label or the label contains
// the tag, case-insensitively.
var satisfactionASRTags = []struct {
	satisfaction string
	tags         []string
}{
	{SatisfactionSatisfied, []string{
		"满分", "Q7-满分", "Q9-满分", "Q5-满分", "Q6-满分", "Q10-满分",
		"非常满意", "很满意", "十分满意",
	}},
	{SatisfactionUnsatisfied, []string{
		"非满分", "Q7-非满分", "Q9-非满分", "Q5-非满分", "不满意",
		"非常不满意", "很不满意",
	}},
	{SatisfactionNeutral, []string{
		"一般", "Q8", "default", "还可以",
	}},
}

// Self-reported score patterns over raw transcript text. The unsatisfied
// digit pattern must not fire inside "10分", hence the leading
// non-digit guard.
var scorePatterns = []struct {
	satisfaction string
	patterns     []string
}{
	{SatisfactionSatisfied, []string{`10分`, `十分`, `9分`, `九分`, `满分`}},
	{SatisfactionNeutral, []string{`8分`, `八分`, `7分`, `七分`, `6分`, `六分`}},
	{SatisfactionUnsatisfied, []string{`(?:^|[^0-9])[0-5]分`, `零分`, `一分`, `两分`, `三分`, `四分`, `五分`}},
}

// Keyword fallback for satisfaction. Checked strictly in the order
// unsatisfied, satisfied, neutral so that "不满意" never matches through
// its "满意" substring.
var satisfactionUnsatisfiedKeywords = []string{
	"不满意", "不好", "差", "不行", "有问题", "没解决", "还是不行",
	"太慢", "太差", "失望", "没用", "白打",
}

var satisfactionSatisfiedKeywords = []string{
	"满意", "很好", "不错", "可以", "好的", "挺好", "没问题", "谢谢",
	"感谢", "辛苦了", "解决了", "处理好了", "修好了", "正常了",
	"专业", "态度好", "服务好", "效率高",
}

var satisfactionNeutralKeywords = []string{
	"一般", "还行", "凑合", "马马虎虎", "还好", "普通", "就那样",
}

var emotionPositiveKeywords = []string{
	"好", "谢谢", "感谢", "满意", "不错", "可以", "行", "嗯", "好的",
	"解决了", "修好了", "正常了", "快", "方便", "专业", "耐心",
	"辛苦", "帮忙", "感激", "棒", "赞", "厉害", "优秀",
	"好的好的", "没问题", "知道了谢谢", "明白", "清楚",
}

var emotionNegativeKeywords = []string{
	"不好", "差", "烦", "急", "气", "怒", "投诉", "问题", "故障",
	"没用", "骗", "坑", "垃圾", "恶心", "讨厌", "烂", "废",
	"慢", "贵", "差劲", "失望", "无语", "搞什么", "什么玩意",
	"烦死了", "受不了", "忍不了", "太过分", "算了吧", "不想说了",
	"别打了", "不要打了", "挂了", "不听", "不接受",
}
