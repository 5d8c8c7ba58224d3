package corpus

import "catalogstream/catalogsearch/internal/domain"

func rating(value float64) *float64 {
	return &value
}

func movie(id int, title, overview, poster, backdrop, released string, vote float64) domain.SearchableItem {
	item := domain.SearchableItem{
		ID:           id,
		Kind:         domain.MediaKindMovie,
		DisplayTitle: title,
		Overview:     overview,
		PosterRef:    poster,
		BackdropRef:  backdrop,
		ReleaseDate:  released,
	}
	if vote > 0 {
		item.Popularity = rating(vote)
	}
	return item
}

func show(id int, name, overview, poster, backdrop, firstAired string, vote float64) domain.SearchableItem {
	item := domain.SearchableItem{
		ID:           id,
		Kind:         domain.MediaKindTV,
		DisplayTitle: name,
		Overview:     overview,
		PosterRef:    poster,
		BackdropRef:  backdrop,
		FirstAirDate: firstAired,
	}
	if vote > 0 {
		item.Popularity = rating(vote)
	}
	return item
}

func builtinMovies() []domain.SearchableItem {
	return []domain.SearchableItem{
		// trending
		movie(10001, "Dune: Part Two",
			"Paul Atreides unites with Chani and the Fremen while on a path of revenge against the conspirators who destroyed his family.",
			"/dGu302NaCTP6aRICUyllRWWDt9G.jpg", "/1Z1Z1g9XxZMEYqgkZ7Z2u7FZ3FD.jpg", "2024-03-01", 8.3),
		movie(10002, "Spider-Man: Across the Spider-Verse",
			"Miles Morales catapults across the Multiverse, where he encounters a team of Spider-People charged with protecting its very existence.",
			"/8Vt6mWEReuy4Of61Lnj5Xj704m8.jpg", "/bz66a19bR6BKsbY8gSZCM4VNh8m.jpg", "2023-05-31", 8.4),
		movie(10004, "Oppenheimer",
			"The story of J. Robert Oppenheimer's role in the development of the atomic bomb during World War II.",
			"/8GxY3ySb9wznPc1U6M7DfsJfPZn.jpg", "/qD0QdbEzpylOnctEXgQZQCE1YtY.jpg", "2023-07-19", 8.1),
		movie(10006, "Mission: Impossible – Dead Reckoning",
			"Ethan Hunt and his IMF team must track down a terrifying new weapon that threatens all of humanity.",
			"/NNxYkU70HPurnNCSiCjYAmacwm.jpg", "/f6r8Cqe7YCOEipppe4fYwdr1XbS.jpg", "2023-07-08", 7.5),

		movie(20001, "Guardians of the Galaxy Vol. 3", "", "/r2J02Z2OpNTctfOSN1Ydgii51I3.jpg", "", "2023-05-03", 7.9),
		movie(20002, "John Wick: Chapter 4", "", "/vZloFAK7NmvMGKE7VkF5UHaz0I.jpg", "", "2023-03-22", 7.8),
		movie(20003, "Top Gun: Maverick", "", "/62HCnUTziyWcpDaBO2i1DX17ljH.jpg", "", "2022-05-24", 8.1),
		movie(20004, "Barbie", "", "/iuFNMS8U5cb6xfzi51Dbkovj7vM.jpg", "", "2023-07-19", 7.1),
		movie(20005, "Avatar: The Way of Water", "", "/t6HIqrRAclMCA60NsSmeqe9RmNV.jpg", "", "2022-12-14", 7.6),
		movie(20006, "Black Panther: Wakanda Forever", "", "/sv1xJUazXeYqALzczSZ3O6nkH75.jpg", "", "2022-11-09", 7.3),

		// upcoming
		movie(40001, "Inside Out 2", "", "/ztmYd9GArdFXG7wyOy7f1HwYQmo.jpg", "", "2024-06-14", 0),
		movie(40002, "Deadpool & Wolverine", "", "/f7q8v7uu1ZeELS2ZEkJjM2IJ9hJ.jpg", "", "2024-07-26", 0),
		movie(40003, "Joker: Folie à Deux", "", "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg", "", "2024-10-04", 0),
		movie(40004, "The Marvels", "", "/8rnLEeAyD8Ke87sR8Ryc8lr0VL5.jpg", "", "2023-11-10", 6.2),
	}
}

func builtinTV() []domain.SearchableItem {
	return []domain.SearchableItem{
		// trending
		show(10003, "The Last of Us",
			"Joel and Ellie, a pair connected through the harshness of the world they live in, are forced to endure brutal circumstances on a trek across post-pandemic America.",
			"/uKvVjHNqB5VmOrdxqAt2F7J78ED.jpg", "/p4Qf2x8VIflogjQUBYgmT0tG5Mb.jpg", "2023-01-15", 8.6),
		show(10005, "Stranger Things",
			"When a young boy vanishes, a small town uncovers a mystery involving secret experiments, terrifying supernatural forces and one strange little girl.",
			"/49WJfeN0moxb9IPfGn8AIqMGskD.jpg", "/56v2KjBlU4XaOv9rVYEQypROD7P.jpg", "2016-07-15", 8.6),

		show(30001, "House of the Dragon", "", "/1X4h40fcB4WWUmIBK0auT4zRBAV.jpg", "", "2022-08-21", 8.4),
		show(30002, "The Boys", "", "/mY7SeH4HFFxW1hiI6cWuwCRKptN.jpg", "", "2019-07-25", 8.5),
		show(30003, "Loki", "", "/kEl2t3OhXc3Zb9FBh1AuYzRTgZp.jpg", "", "2021-06-09", 8.1),
		show(30004, "Breaking Bad", "", "/ggFHVNu6YYI5L9pCfOacjizRGt.jpg", "", "2008-01-20", 8.9),
		show(30005, "Succession", "", "/7coW1Mgoc8dr4FQezAr6ij4ujMt.jpg", "", "2018-06-03", 8.3),
		show(30006, "The Mandalorian", "", "/eU1i6eHXlzMOlEq0ku1Rzq7Y4wA.jpg", "", "2019-11-12", 8.4),
	}
}
