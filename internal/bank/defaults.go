package bank

import "persona-survey-bot/internal/domain"

// Built-in datasets used when the configured content source is unavailable.
// They mirror the provisioned content in shape; the full production sets are
// provisioned externally.

func defaultPriorityQuestions() []domain.Question {
	return []domain.Question{
		{
			Text: "Расставь приоритеты от 4 (максимально важно для тебя сейчас) до 1 (минимально важно). Оцени каждый блок, даже если все кажутся важными. Каждое число можно использовать только один раз.",
			Categories: []domain.Category{
				{
					ID:          "personal_wellbeing",
					Title:       "Личное благополучие",
					Description: "• Внутреннее спокойствие и уравновешенность\n• Чувствовать себя счастливым каждый день\n• Быть здоровым и полным энергии",
				},
				{
					ID:          "material_career",
					Title:       "Материальное и карьерное развитие",
					Description: "• Финансовая обеспеченность\n• Успешная карьера / своё дело\n• Жить в комфорте и безопасности",
				},
				{
					ID:          "relationships",
					Title:       "Отношения и окружение",
					Description: "• Крепкая семья / гармоничные отношения\n• Окружение людей, которые ценят\n• Доверять и быть понятым",
				},
				{
					ID:          "self_realization",
					Title:       "Самореализация и влияние",
					Description: "• Делать то, что люблю, и получать доход\n• Развиваться и учиться новому\n• Оставить значимый след в мире",
				},
			},
		},
	}
}

func defaultThinkingQuestions() []domain.Question {
	return []domain.Question{
		{
			Text: "Когда между людьми имеет место конфликт на почве идей, я отдаю предпочтение той стороне, которая:\n1️⃣ Устанавливает, определяет конфликт и пытается выразить его открыто.\n2️⃣ Лучше всех выражает затрагиваемые ценности и идеалы.\n3️⃣ Лучше всех отражает мои личные взгляды и опыт.\n4️⃣ Подходит к ситуации наиболее логично и последовательно.\n5️⃣ Излагает аргументы наиболее кратко и убедительно.",
			Mapping: map[string]string{
				"1": "Синтетический",
				"2": "Идеалистический",
				"3": "Прагматический",
				"4": "Аналитический",
				"5": "Реалистический",
			},
		},
		{
			Text: "Когда я начинаю работать над проектом в составе группы, самое важное для меня:\n1️⃣ Понять цели и значение этого проекта.\n2️⃣ Раскрыть цели и ценности участников рабочей группы.\n3️⃣ Определить, как мы собираемся разрабатывать данный проект.\n4️⃣ Понять, какую выгоду этот проект может принести для нашей группы.\n5️⃣ Чтобы работа над проектом была организована и сдвинулась с места.",
			Mapping: map[string]string{
				"1": "Идеалистический",
				"2": "Синтетический",
				"3": "Аналитический",
				"4": "Прагматический",
				"5": "Реалистический",
			},
		},
		{
			Text: "Вообще говоря, я усваиваю новые идеи лучше всего, когда могу:\n1️⃣ Связать их с текущими или будущими занятиями.\n2️⃣ Применить их к конкретным ситуациям.\n3️⃣ Сосредоточиться на них и тщательно их проанализировать.\n4️⃣ Понять, насколько они сходны с привычными идеями.\n5️⃣ Противопоставить их другим идеям.",
			Mapping: map[string]string{
				"1": "Прагматический",
				"2": "Реалистический",
				"3": "Аналитический",
				"4": "Синтетический",
				"5": "Идеалистический",
			},
		},
	}
}

func defaultPersonalityQuestions() []domain.Question {
	return []domain.Question{
		{
			Key:        "1",
			Text:       "Часто ли вы испытываете тягу к новым впечатлениям, к тому, чтобы встряхнуться, испытать возбуждение?",
			Scale:      "E",
			ScoringAns: "да",
		},
		{
			Key:        "2",
			Text:       "Часто ли нуждаетесь в друзьях, которые вас понимают, могут ободрить, утешить?",
			Scale:      "N",
			ScoringAns: "да",
		},
		{
			Key:        "3",
			Text:       "Вы верите в удачу, считая себя везучим человеком?",
			Scale:      "E",
			ScoringAns: "да",
		},
		{
			Key:        "4",
			Text:       "Находите ли вы, что вам трудно ответить «нет»?",
			Scale:      "L",
			ScoringAns: "да",
		},
		{
			Key:        "5",
			Text:       "Задумываетесь ли вы перед тем, как что-нибудь предпринять?",
			Scale:      "L",
			ScoringAns: "да",
		},
	}
}
