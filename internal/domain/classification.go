package domain

// UnsortedDir 是无法按年份归类的文件所在的固定目录名。
const UnsortedDir = "Unsorted"

// Classification 是文件的归类结果：要么是年份标签，要么是 Unsorted。
//
// 约束：年份标签取自 EXIF DateTime 的前 4 个字符，不校验是否为数字。
type Classification struct {
	Label    string
	Unsorted bool
}

// Year 构造年份归类。空标签视为 Unsorted。
func Year(label string) Classification {
	if label == "" {
		return UnsortedClass()
	}
	return Classification{Label: label}
}

func UnsortedClass() Classification {
	return Classification{Unsorted: true}
}

// Dir 返回该归类在输出目录下对应的子目录名。
func (c Classification) Dir() string {
	if c.Unsorted || c.Label == "" {
		return UnsortedDir
	}
	return c.Label
}
